package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"strings"
	"testing"

	"sbs/src/db"
	"sbs/src/lib"
	"sbs/src/middlewares"
	"sbs/src/types"
	"sbs/src/utils"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"github.com/tidwall/gjson"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type TestSuite struct {
	suite.Suite
	DB    *gorm.DB
	Mock  sqlmock.Sqlmock
	Token string
}

// authMiddleware mirrors the session middleware without the user lookup so
// route tests control the database expectations themselves.
func authMiddleware(ctx *gin.Context) {
	bearerToken := ctx.Request.Header.Get("Authorization")
	if !strings.HasPrefix(bearerToken, "Bearer") {
		ctx.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	parts := strings.Split(bearerToken, " ")
	if len(parts) < 2 {
		ctx.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	reqToken := parts[1]
	claims := &types.Claims{}
	tkn, err := jwt.ParseWithClaims(reqToken, claims, func(t *jwt.Token) (any, error) {
		return []byte(os.Getenv("JWT_SECRET")), nil
	})
	if err != nil || !tkn.Valid {
		ctx.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	id, _ := strconv.Atoi(claims.Subject)
	ctx.Set("id", uint(id))
	ctx.Set("uid", claims.UID)
	ctx.Set("email", claims.Username)
}

func NewMockDB() (*gorm.DB, sqlmock.Sqlmock) {
	conn, mock, err := sqlmock.New()
	if err != nil {
		log.Fatalf("An error '%s' was not expected when opening a stub database connection", err)
	}

	// Hand the dialector the stub connection itself; opening by DSN makes
	// the driver dial a real server and drop the stub pool.
	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: conn}), &gorm.Config{})
	if err != nil {
		log.Fatalf("An error '%s' was not expected when opening gorm database", err)
	}

	return gormDB, mock
}

func (s *TestSuite) SetupSuite() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("bookabledate", bookableDateValidatorFunc)
	}
	os.Setenv("JWT_SECRET", "test-secret")

	d, mock := NewMockDB()
	db.NewDB(d)
	s.DB = d
	s.Mock = mock

	// Commands fail fast against a closed port instead of panicking on a
	// nil client.
	lib.NewRedisClient(redis.NewClient(&redis.Options{Addr: "localhost:63790"}))

	token, err := utils.GenerateJWT(7, "uid-7", "claire@example.com")
	if err != nil {
		log.Fatalf("Error generating JWT token: %s\n", err.Error())
	}
	s.Token = token
}

func (s *TestSuite) TestPingRoute() {
	router := setupRouter()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/", nil)
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), 200, w.Code)
}

func (s *TestSuite) TestSpectaclesRoute() {
	router := setupRouter()
	spectacleHandlers(apiv1Group(router))

	rows := sqlmock.NewRows([]string{"id", "name", "venue", "category", "price_vip", "price_premium", "price_lite"}).
		AddRow(1, "Indochine", "Accor Arena", "concert", 10000, 7500, 5000).
		AddRow(2, "Le Lac des Cygnes", "Palais des Congrès", "spectacle", 10000, 7500, 5000)
	s.Mock.ExpectQuery(`SELECT (.+) FROM "spectacles"`).WillReturnRows(rows)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/v1/spectacles", nil)
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), 200, w.Code)
	body, err := io.ReadAll(w.Body)
	assert.Nil(s.T(), err)
	sjson := string(body)
	assert.Equal(s.T(), int64(1), gjson.Get(sjson, "concerts.#").Int())
	assert.Equal(s.T(), "Le Lac des Cygnes", gjson.Get(sjson, "spectacles.0.spectacle.nom_spectacle").String())
}

func (s *TestSuite) TestSpectaclesSearchKeepsWildcardsLiteral() {
	router := setupRouter()
	spectacleHandlers(apiv1Group(router))

	rows := sqlmock.NewRows([]string{"id", "name", "venue", "category", "price_vip", "price_premium", "price_lite"}).
		AddRow(1, "Indochine", "Accor Arena", "concert", 10000, 7500, 5000).
		AddRow(2, "Le Lac des Cygnes", "Palais des Congrès", "spectacle", 10000, 7500, 5000)
	s.Mock.ExpectQuery(`SELECT (.+) FROM "spectacles"`).WillReturnRows(rows)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/v1/spectacles?search=%25", nil)
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), 200, w.Code)
	body, _ := io.ReadAll(w.Body)
	sjson := string(body)
	// a "%" in the term matches no name instead of acting as a wildcard
	assert.Equal(s.T(), int64(0), gjson.Get(sjson, "concerts.#").Int())
	assert.Equal(s.T(), int64(0), gjson.Get(sjson, "spectacles.#").Int())
	assert.Nil(s.T(), s.Mock.ExpectationsWereMet())
}

func (s *TestSuite) TestSpectacleDetailRoute() {
	router := setupRouter()
	spectacleHandlers(apiv1Group(router))

	rows := sqlmock.NewRows([]string{"id", "name", "price_vip", "price_premium", "price_lite"}).
		AddRow(3, "Le Lac des Cygnes", 10000, 7500, 5000)
	s.Mock.ExpectQuery(`SELECT (.+) FROM "spectacles"`).WillReturnRows(rows)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/v1/spectacles/3", nil)
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), 200, w.Code)
	body, _ := io.ReadAll(w.Body)
	sjson := string(body)
	assert.Equal(s.T(), int64(3), gjson.Get(sjson, "zones.#").Int())
	assert.Equal(s.T(), "VIP", gjson.Get(sjson, "zones.0.name").String())
	assert.Equal(s.T(), float64(10000), gjson.Get(sjson, "zones.0.price").Float())
}

func (s *TestSuite) TestAuthRoutesMissingHeader() {
	router := setupRouter()
	guestAuthRoutes(router)

	jbody := map[string]any{"email": "someone@example.com"}
	sbody, _ := json.Marshal(&jbody)

	w := httptest.NewRecorder()
	loginReq, _ := http.NewRequest("POST", "/api/v1/auth/login", strings.NewReader(string(sbody)))
	router.ServeHTTP(w, loginReq)

	assert.Equal(s.T(), 401, w.Code)
}

func (s *TestSuite) TestTicketsRequireSession() {
	router := setupRouter()
	apiv1 := apiv1Group(router)
	apiv1.Use(middlewares.AuthMiddleware)
	ticketHandlers(apiv1)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/v1/tickets", nil)
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), 401, w.Code)
}

func (s *TestSuite) TestAuthHeaderWithoutToken() {
	router := setupRouter()
	apiv1 := apiv1Group(router)
	apiv1.Use(middlewares.AuthMiddleware)
	ticketHandlers(apiv1)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/v1/tickets", nil)
	req.Header.Set("Authorization", "Bearer")
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), 401, w.Code)
}

func (s *TestSuite) TestBookings() {
	router := setupRouter()
	apiv1 := apiv1Group(router)
	apiv1.Use(authMiddleware)
	bookingHandlers(apiv1)

	userRows := func() *sqlmock.Rows {
		return sqlmock.NewRows([]string{"id", "first_name", "last_name", "email", "uid"}).
			AddRow(7, "Claire", "Durand", "claire@example.com", "uid-7")
	}
	spectacleRows := func() *sqlmock.Rows {
		return sqlmock.NewRows([]string{"id", "name", "price_vip", "price_premium", "price_lite"}).
			AddRow(3, "Le Lac des Cygnes", 10000, 7500, 5000)
	}

	s.Run("Should reject a quantity above the limit", func() {
		s.Mock.ExpectQuery(`SELECT (.+) FROM "users"`).WillReturnRows(userRows())
		s.Mock.ExpectQuery(`SELECT (.+) FROM "spectacles"`).WillReturnRows(spectacleRows())

		w := httptest.NewRecorder()
		jbody := map[string]any{"spectacle": 3, "zone": "VIP", "nombre": "9"}
		sbody, _ := json.Marshal(&jbody)
		req, _ := http.NewRequest("POST", "/api/v1/bookings", strings.NewReader(string(sbody)))
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", s.Token))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 400, w.Code)
		body, _ := io.ReadAll(w.Body)
		assert.Equal(s.T(), "cannot exceed 8 tickets", gjson.Get(string(body), "error").String())
	})

	s.Run("Should reject a submit without a session", func() {
		w := httptest.NewRecorder()
		jbody := map[string]any{"spectacle": 3, "zone": "VIP", "nombre": "3"}
		sbody, _ := json.Marshal(&jbody)
		req, _ := http.NewRequest("POST", "/api/v1/bookings", strings.NewReader(string(sbody)))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 401, w.Code)
	})

	s.Run("Should issue exactly one ticket", func() {
		s.Mock.ExpectQuery(`SELECT (.+) FROM "users"`).WillReturnRows(userRows())
		s.Mock.ExpectQuery(`SELECT (.+) FROM "spectacles"`).WillReturnRows(spectacleRows())
		s.Mock.ExpectBegin()
		s.Mock.ExpectQuery(`SELECT (.+) FROM "spectacles"`).WillReturnRows(spectacleRows())
		s.Mock.ExpectQuery(`INSERT INTO "tickets"`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(42))
		s.Mock.ExpectCommit()

		w := httptest.NewRecorder()
		jbody := map[string]any{"spectacle": 3, "zone": "VIP", "nombre": "3"}
		sbody, _ := json.Marshal(&jbody)
		req, _ := http.NewRequest("POST", "/api/v1/bookings", strings.NewReader(string(sbody)))
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", s.Token))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 201, w.Code)
		body, _ := io.ReadAll(w.Body)
		sjson := string(body)
		assert.Equal(s.T(), int64(42), gjson.Get(sjson, "data.id").Int())
		assert.Equal(s.T(), float64(30000), gjson.Get(sjson, "data.prix").Float())
		assert.Nil(s.T(), s.Mock.ExpectationsWereMet())
	})
}

func TestRunner(t *testing.T) {
	suite.Run(t, new(TestSuite))
}
