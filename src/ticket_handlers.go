package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"path"
	"time"

	"sbs/src/common"
	"sbs/src/db"
	"sbs/src/lib"
	awslib "sbs/src/lib/aws"
	"sbs/src/models"
	"sbs/src/types"
	"sbs/src/utils"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/yeqown/go-qrcode"
	"gorm.io/gorm"
)

func ticketHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/tickets", func(ctx *gin.Context) {
			userId := ctx.GetUint("id")
			tickets, err := common.ListUserTickets(ctx, userId)
			if err != nil {
				log.Printf("Error retrieving Tickets: %s\n", err.Error())
				ctx.Status(http.StatusBadRequest)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": tickets, "notice": common.RetentionNotice})
		}).
		GET("/tickets/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ticket, err := requireOwnTicket(ctx, params.ID)
			if err != nil {
				return
			}
			detail, err := common.ResolveTicketDetail(ctx, &common.GormDetailStore{}, ticket.ID)
			if err != nil {
				log.Printf("Error resolving Ticket [%d]: %s\n", params.ID, err.Error())
				ctx.Status(http.StatusBadRequest)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": detail})
		}).
		POST("/tickets/:id/code", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ticket, err := requireOwnTicket(ctx, params.ID)
			if err != nil {
				return
			}

			filename := fmt.Sprintf("qrc-%d", ticket.ID)
			rd := lib.GetRedisClient()
			cached, err := rd.Get(context.Background(), filename).Result()
			if err == nil {
				ctx.JSON(http.StatusOK, gin.H{"url": cached})
				return
			}
			if !errors.Is(err, redis.Nil) {
				log.Printf("[redis] Error reading cached code: %s\n", err.Error())
			}

			detail, err := common.ResolveTicketDetail(ctx, &common.GormDetailStore{}, ticket.ID)
			if err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			payload := common.BuildQRPayload(detail)
			rawBytes, _ := json.Marshal(payload)

			key, err := hex.DecodeString(os.Getenv("API_QRC_SECRET"))
			if err != nil {
				log.Printf("Could not read key from string: %s\n", err.Error())
				ctx.Status(http.StatusInternalServerError)
				return
			}
			encryptedMessage, err := utils.EncryptMessage(key, string(rawBytes))
			if err != nil {
				log.Printf("Error encrypting message: %s\n", err.Error())
				ctx.Status(http.StatusInternalServerError)
				return
			}
			qrc, err := qrcode.New(encryptedMessage)
			if err != nil {
				ctx.Status(http.StatusInternalServerError)
				return
			}
			tempdir := os.Getenv("TEMP_DIR")
			filepath := path.Join(tempdir, fmt.Sprintf("%s.jpeg", filename))
			if err = qrc.Save(filepath); err != nil {
				log.Printf("Could not save qrcode to file [%s]: %s\n", filepath, err.Error())
				ctx.Status(http.StatusInternalServerError)
				return
			}
			file, err := os.Open(filepath)
			if err != nil {
				ctx.Status(http.StatusInternalServerError)
				return
			}
			defer file.Close()
			url, err := awslib.S3UploadAsset(ctx, filename, file, "image/jpeg")
			if err != nil {
				log.Printf("Error uploading asset to S3 bucket: %s\n", err.Error())
				ctx.Status(http.StatusBadGateway)
				return
			}
			rd.SetEx(context.Background(), filename, *url, 2*time.Hour)
			ctx.JSON(http.StatusOK, gin.H{"url": url})
		})
	return g
}

// requireOwnTicket loads the ticket and aborts the request unless it belongs
// to the authenticated account.
func requireOwnTicket(ctx *gin.Context, id uint) (*models.Ticket, error) {
	userId := ctx.GetUint("id")
	var ticket models.Ticket
	db := db.GetDb()
	if err := db.Where(&models.Ticket{ID: id}).First(&ticket).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.Status(http.StatusNotFound)
			return nil, err
		}
		log.Printf("Error retrieving Ticket [%d]: %s\n", id, err.Error())
		ctx.Status(http.StatusBadRequest)
		return nil, err
	}
	if ticket.UserID != userId {
		err := errors.New("ticket does not belong to this account")
		ctx.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": err.Error()})
		return nil, err
	}
	return &ticket, nil
}
