package middlewares

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"sbs/src/lib"

	"github.com/gin-gonic/gin"
)

// VerifyIdToken guards routes reachable right after Firebase sign-in, before
// a session token has been issued.
func VerifyIdToken(ctx *gin.Context) {
	idToken := ctx.GetHeader("Authorization")
	if idToken == "" {
		err := errors.New("missing authorization header")
		log.Printf("Check failed: %s\n", err.Error())
		ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	fauth, err := lib.GetFirebaseAuth()
	if err != nil {
		log.Printf("Error retrieving Firebase Auth instance: %s\n", err.Error())
		ctx.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	token, err := fauth.VerifyIDToken(ctx, idToken)
	if err != nil {
		log.Printf("Failed to verify ID token: %v\n", err)
		ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Failed to verify ID token"})
		return
	}
	rd := lib.GetRedisClient()
	rd.SetEx(context.Background(), fmt.Sprintf("%s:token", token.UID), idToken, 24*time.Hour)
	ctx.Set("uid", token.UID)
}
