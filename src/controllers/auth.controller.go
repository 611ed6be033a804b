package controllers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"sbs/src/db"
	"sbs/src/lib"
	"sbs/src/models"
	"sbs/src/types"
	"sbs/src/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// AuthLogin exchanges a verified Firebase identity for a session token. The
// account must already have a profile row.
func AuthLogin(ctx *gin.Context) (token *string, status int, err error) {
	var body types.LoginRequestBody
	if err := ctx.ShouldBindJSON(&body); err != nil {
		return nil, http.StatusBadRequest, err
	}
	auth, err := lib.GetFirebaseAuth()
	if err != nil {
		log.Printf("Error initializing FirebaseAuth client: %s\n", err.Error())
		return nil, http.StatusBadRequest, err
	}
	user, err := auth.GetUserByEmail(context.Background(), body.Email)
	if err != nil {
		log.Printf("error from Firebase: %s\n", err.Error())
		return nil, http.StatusNotFound, err
	}

	db := db.GetDb()
	var muser models.User
	if err = db.
		Model(&models.User{}).
		Where(&models.User{Email: user.Email}).
		First(&muser).
		Error; err != nil {
		log.Printf("error: %s\n", err.Error())
		return nil, http.StatusNotFound, err
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		return tx.
			Model(&models.User{}).
			Where("id", muser.ID).
			Update("last_active", time.Now()).
			Error
	})
	if err != nil {
		log.Printf("Error logging in user [%d]: %s\n", muser.ID, err.Error())
		return nil, http.StatusBadRequest, err
	}

	jwt, err := utils.GenerateJWT(muser.ID, muser.UID, muser.Email)
	if err != nil {
		log.Printf("Error signing session token: %s\n", err.Error())
		return nil, http.StatusInternalServerError, err
	}

	rd := lib.GetRedisClient()
	if _, err := rd.SetEx(context.Background(), fmt.Sprintf("%d:user", muser.ID), muser.Email, 24*time.Hour).Result(); err != nil {
		log.Printf("[redis] Error updating user cache: %s\n", err.Error())
	}

	return &jwt, http.StatusOK, nil
}

// AuthRegister creates the profile row for a freshly signed-up Firebase
// account. Registering an email twice is rejected.
func AuthRegister(ctx *gin.Context) (uid *string, status int, err error) {
	var body types.RegisterUserRequestBody
	if err := ctx.ShouldBindJSON(&body); err != nil {
		return nil, http.StatusBadRequest, err
	}
	auth, err := lib.GetFirebaseAuth()
	if err != nil {
		return nil, http.StatusBadRequest, err
	}
	user, err := auth.GetUserByEmail(context.Background(), body.Email)
	if err != nil {
		return nil, http.StatusBadRequest, err
	}

	db := db.GetDb()
	err = db.Transaction(func(tx *gorm.DB) error {
		var muser models.User
		if err := tx.
			Model(&models.User{}).
			Select("id").
			Where("email = ?", body.Email).
			First(&muser).
			Error; err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return errors.New("could not complete transaction")
			}
		}
		if muser.ID > 0 {
			err := errors.New("user is already registered in the system. Please proceed to Log In")
			log.Printf("error: %s\n", err.Error())
			return err
		}

		newUser := models.User{
			Email:     user.Email,
			UID:       user.UID,
			FirstName: body.FirstName,
			LastName:  body.LastName,
			PhotoURL:  body.PhotoURL,
		}
		if err := tx.Create(&newUser).Error; err != nil {
			log.Printf("Error creating user: %s\n", err.Error())
			return fmt.Errorf("error creating user: %s", user.Email)
		}
		return nil
	})
	if err != nil {
		return nil, http.StatusBadRequest, err
	}
	return &user.UID, http.StatusOK, nil
}
