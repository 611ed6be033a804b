package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"

	"sbs/src/common"
	"sbs/src/db"
	"sbs/src/lib"
	"sbs/src/models"
	"sbs/src/types"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// One submission per account at a time, across requests.
var bookingsInFlight sync.Map

func bookingHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/bookings", func(ctx *gin.Context) {
			var body types.CreateBookingRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			userId := ctx.GetUint("id")
			var user models.User
			var spectacle models.Spectacle
			db := db.GetDb()
			if err := db.Where(&models.User{ID: userId}).First(&user).Error; err != nil {
				ctx.JSON(http.StatusUnauthorized, gin.H{"error": common.NoticeNotLoggedIn})
				return
			}
			if err := db.Where(&models.Spectacle{ID: body.SpectacleID}).First(&spectacle).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					ctx.Status(http.StatusNotFound)
					return
				}
				ctx.Status(http.StatusBadRequest)
				return
			}

			if _, loaded := bookingsInFlight.LoadOrStore(userId, struct{}{}); loaded {
				ctx.JSON(http.StatusConflict, gin.H{"error": common.ErrSubmitInFlight.Error()})
				return
			}
			defer bookingsInFlight.Delete(userId)

			w := common.NewBookingWorkflow(&spectacle)
			w.SelectZone(body.Zone)
			w.EditQuantity(body.Qty)
			if notice := w.Notice(); notice != "" {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": notice})
				return
			}
			ticket, err := w.Submit(ctx, &user)
			if err != nil {
				log.Printf("Error submitting booking for user [%d]: %s\n", userId, err.Error())
				status := http.StatusBadRequest
				if errors.Is(err, common.ErrSubmitInFlight) {
					status = http.StatusConflict
				}
				ctx.JSON(status, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": ticket})
		}).
		GET("/bookings/latest", func(ctx *gin.Context) {
			uid := ctx.GetString("uid")
			rd := lib.GetRedisClient()
			val, err := rd.Get(context.Background(), fmt.Sprintf("ticket:%s", uid)).Result()
			if err != nil {
				if errors.Is(err, redis.Nil) {
					ctx.Status(http.StatusNotFound)
					return
				}
				log.Printf("[redis] Error reading ticket summary: %s\n", err.Error())
				ctx.Status(http.StatusBadRequest)
				return
			}
			ctx.Data(http.StatusOK, "application/json", []byte(val))
		})
	return g
}
