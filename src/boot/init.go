package boot

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"path"
	"time"

	"sbs/src/common"
	"sbs/src/db"
	"sbs/src/lib"
	awslib "sbs/src/lib/aws"
	"sbs/src/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"gorm.io/gorm"
)

func InitDb() *gorm.DB {
	db := db.GetDb()

	err := db.AutoMigrate(
		&models.User{},
		&models.Spectacle{},
		&models.Ticket{},
	)
	if err != nil {
		log.Fatalf("error migration: %s", err.Error())
	}

	return db
}

func InitBroker() {
	go func() {
		if _, err := lib.KafkaCreateTopics(lib.TOPIC_TICKETS_ISSUED); err != nil {
			log.Printf("Error creating topics: %s\n", err.Error())
		}
	}()
	go lib.KafkaConsume("NotificationsGroup", lib.TOPIC_TICKETS_ISSUED, common.KafkaTicketsIssuedConsumer)
}

// InitScheduler starts the retention job that removes tickets whose
// spectacle date has passed.
func InitScheduler() {
	id, err := lib.CreateCronJob(common.PurgeExpiredTickets, 1*time.Hour)
	if err != nil {
		log.Printf("Error running job: %s\n", err.Error())
		return
	}
	log.Printf("Job ID: %s\n", *id)
	sched, err := lib.GetScheduler()
	if err != nil {
		log.Println("An error has occurred. Check logs for info")
		return
	}
	sched.Start()
}

func StopScheduler() {
	sched, err := lib.GetScheduler()
	if err != nil {
		log.Println("Error retrieving Scheduler. Check logs for info")
		return
	}
	err = sched.Shutdown()
	if err != nil {
		log.Println("An error has occurred while stopping Scheduler. Check logs for info")
		return
	}
}

// DownloadSDKFileFromS3 fetches the Firebase admin credentials on first boot
// when the secrets volume is empty.
func DownloadSDKFileFromS3() {
	filename := "admin-sdk-credentials.json"
	secretsDir := os.Getenv("SECRETS_DIR")
	if secretsDir == "" {
		secretsDir = "/secrets"
	}
	sdkFilePath := path.Join(secretsDir, filename)
	_, err := os.Stat(sdkFilePath)
	if errors.Is(err, os.ErrNotExist) {
		log.Println("File not found. Downloading...")
		client := awslib.GetS3Client()
		secretsBucket := os.Getenv("S3_SECRETS_BUCKET")
		object, err := client.GetObject(context.Background(), &s3.GetObjectInput{
			Bucket: aws.String(secretsBucket),
			Key:    aws.String(filename),
		})
		if err != nil {
			log.Printf("[S3] Error retrieving object: %s\n", err.Error())
			return
		}
		defer object.Body.Close()
		file, err := os.Create(sdkFilePath)
		if err != nil {
			log.Printf("Could not create file %s: %s\n", filename, err.Error())
			return
		}
		defer file.Close()
		body, err := io.ReadAll(object.Body)
		if err != nil {
			log.Printf("Couldn't read object body from %s: %s\n", filename, err.Error())
			return
		}
		if _, err = file.Write(body); err != nil {
			log.Printf("Error writing to file: %s\n", err.Error())
			return
		}
		log.Println("File has been written")
		return
	}
	log.Println("File exists!")
}
