package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"sbs/src/db"
	"sbs/src/lib"
	awslib "sbs/src/lib/aws"
	"sbs/src/models"
	"sbs/src/types"
	"sbs/src/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func accountHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/me", func(ctx *gin.Context) {
			userId := ctx.GetUint("id")
			rd := lib.GetRedisClient()
			cacheKey := fmt.Sprintf("user:%d", userId)
			if cached, err := rd.Get(context.Background(), cacheKey).Result(); err == nil {
				ctx.Data(http.StatusOK, "application/json", []byte(cached))
				return
			}
			var user models.User
			db := db.GetDb()
			if err := db.Where(&models.User{ID: userId}).First(&user).Error; err != nil {
				ctx.Status(http.StatusNotFound)
				return
			}
			if body, err := json.Marshal(gin.H{"data": user}); err == nil {
				rd.SetEx(context.Background(), cacheKey, body, time.Hour)
			}
			ctx.JSON(http.StatusOK, gin.H{"data": user})
		}).
		PUT("/me", func(ctx *gin.Context) {
			var body types.UpdateProfileRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			userId := ctx.GetUint("id")
			updates := models.User{}
			if body.FirstName != nil {
				updates.FirstName = *body.FirstName
			}
			if body.LastName != nil {
				updates.LastName = *body.LastName
			}
			db := db.GetDb()
			err := db.Transaction(func(tx *gorm.DB) error {
				return tx.
					Model(&models.User{}).
					Where(&models.User{ID: userId}).
					Updates(&updates).
					Error
			})
			if err != nil {
				log.Printf("Error updating profile for user [%d]: %s\n", userId, err.Error())
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			lib.GetRedisClient().Del(context.Background(), fmt.Sprintf("user:%d", userId))
			ctx.Status(http.StatusOK)
		}).
		POST("/me/avatar", func(ctx *gin.Context) {
			userId := ctx.GetUint("id")
			email := ctx.GetString("email")
			fileHeader, err := ctx.FormFile("file")
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			file, err := fileHeader.Open()
			if err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			defer file.Close()
			key := utils.AssetKey("profilePictures", email)
			url, err := awslib.S3UploadAsset(ctx, key, file, fileHeader.Header.Get("Content-Type"))
			if err != nil {
				log.Printf("Error uploading avatar for user [%d]: %s\n", userId, err.Error())
				ctx.Status(http.StatusBadGateway)
				return
			}
			db := db.GetDb()
			if err := db.
				Model(&models.User{}).
				Where(&models.User{ID: userId}).
				Update("photo_url", url).
				Error; err != nil {
				log.Printf("Error saving avatar URL: %s\n", err.Error())
				ctx.Status(http.StatusBadRequest)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"url": url})
		}).
		GET("/me/avatar", func(ctx *gin.Context) {
			email := ctx.GetString("email")
			key := utils.AssetKey("profilePictures", email)
			url, err := awslib.S3PresignAsset(ctx, key)
			if err != nil {
				ctx.Status(http.StatusNotFound)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"url": url})
		})
	return g
}
