package main

import (
	"errors"
	"log"
	"net/http"
	"time"

	"sbs/src/common"
	"sbs/src/config"
	"sbs/src/db"
	"sbs/src/lib"
	"sbs/src/models"
	"sbs/src/types"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func spectacleHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/spectacles", func(ctx *gin.Context) {
			var filters types.SpectaclesQueryFilters
			if err := ctx.ShouldBindQuery(&filters); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			spectacles, err := common.ListSpectacles(ctx, filters)
			if err != nil {
				log.Printf("Error retrieving Spectacles: %s\n", err.Error())
				ctx.Status(http.StatusBadRequest)
				return
			}
			concerts, others := common.PartitionCatalog(spectacles)
			ctx.JSON(http.StatusOK, gin.H{"concerts": concerts, "spectacles": others})
		}).
		GET("/spectacles/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			var spectacle models.Spectacle
			db := db.GetDb()
			if err := db.
				Where(&models.Spectacle{ID: params.ID}).
				First(&spectacle).
				Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					ctx.Status(http.StatusNotFound)
					return
				}
				log.Printf("Error retrieving Spectacle [%d]: %s\n", params.ID, err.Error())
				ctx.Status(http.StatusBadRequest)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": spectacle, "zones": spectacle.Zones()})
		}).
		GET("/discovery/events", func(ctx *gin.Context) {
			keyword := ctx.Query("keyword")
			events, err := lib.DiscoveryListEvents(ctx, keyword)
			if err != nil {
				log.Printf("Error querying discovery feed: %s\n", err.Error())
				ctx.Status(http.StatusBadGateway)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": events})
		}).
		GET("/discovery/events/:id", func(ctx *gin.Context) {
			event, err := lib.DiscoveryEventDetails(ctx, ctx.Param("id"))
			if err != nil {
				log.Printf("Error querying discovery feed: %s\n", err.Error())
				ctx.Status(http.StatusBadGateway)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": event})
		})
	return g
}

func spectacleAdminHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/spectacles", func(ctx *gin.Context) {
			var body types.CreateSpectacleRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			date, err := time.Parse(config.TIME_PARSE_FORMAT, body.Date)
			if err != nil {
				log.Printf("Error parsing date: %s\n", err.Error())
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			spectacle := models.Spectacle{
				Name:         body.Name,
				Venue:        body.Venue,
				Date:         date,
				Heure:        body.Heure,
				Category:     types.Category(body.Category),
				PriceVIP:     body.PriceVIP,
				PricePremium: body.PricePremium,
				PriceLite:    body.PriceLite,
				Information1: body.Information1,
				Information2: body.Information2,
				Description:  body.Description,
			}
			if body.CoverImage != "" {
				spectacle.CoverImage = &body.CoverImage
			}
			if body.PosterImage != "" {
				spectacle.PosterImage = &body.PosterImage
			}
			db := db.GetDb()
			err = db.Transaction(func(tx *gorm.DB) error {
				return tx.Create(&spectacle).Error
			})
			if err != nil {
				log.Printf("Error creating Spectacle: %s\n", err.Error())
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"id": spectacle.ID})
		})
	return g
}
