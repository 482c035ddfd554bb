package main

import (
	"io"
	"log"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/imkonsowa/restaurants-linebot/cache"
	"github.com/imkonsowa/restaurants-linebot/config"
	"github.com/imkonsowa/restaurants-linebot/llm"
	"github.com/imkonsowa/restaurants-linebot/metrics"
	"github.com/imkonsowa/restaurants-linebot/places"
	"github.com/imkonsowa/restaurants-linebot/rag"
	"github.com/imkonsowa/restaurants-linebot/store"
	"github.com/line/line-bot-sdk-go/v7/linebot"
	"github.com/prometheus/client_golang/prometheus"
)

type Agent struct {
	config   *config.Config
	handler  *Handler
	bot      *linebot.Client
	photos   PhotoFetcher
	registry *prometheus.Registry
	upgrader websocket.Upgrader
	now      func() time.Time
}

func main() {
	cfg := config.LoadConfig()
	config.InitLogger(cfg.Log)

	db, err := store.NewPg(cfg.Postgres.ConnStr())
	if err != nil {
		log.Fatal(err)
	}

	chatLLM, embedder, err := llm.New(cfg.LLM)
	if err != nil {
		log.Fatal(err)
	}

	c := cache.New(cfg.Redis)
	defer func() { _ = cache.Close(c) }()

	var (
		locator *rag.Locator
		photos  PhotoFetcher
	)
	if cfg.Google.APIKey != "" {
		mapsClient, err := places.NewMapsClient(cfg.Google.APIKey, cfg.Google.RateLimit)
		if err != nil {
			log.Fatal(err)
		}
		placesClient := places.NewClient(mapsClient)
		locator = rag.NewLocator(chatLLM, placesClient, c)
		photos = placesClient
	} else {
		slog.Warn("no places api key configured, geocoding and photos are disabled")
	}

	answerer := rag.NewAnswerer(
		chatLLM,
		embedder,
		db,
		locator,
		rag.NewTranslator(chatLLM, c),
		rag.Options{Temperature: cfg.LLM.Temperature},
	)

	chatLog, err := OpenChatLog(cfg.ChatLog.Path)
	if err != nil {
		log.Fatal(err)
	}
	defer chatLog.Close()

	bot, err := linebot.New(cfg.Line.ChannelSecret, cfg.Line.ChannelToken)
	if err != nil {
		log.Fatal(err)
	}

	agent := &Agent{
		config:   cfg,
		handler:  NewHandler(answerer, db, chatLog),
		bot:      bot,
		photos:   photos,
		registry: metrics.InitRegistry(),
		upgrader: websocket.Upgrader{},
		now:      time.Now,
	}

	if err := agent.Run(); err != nil {
		log.Fatalf("failed to run the agent: %v", err)
	}
}

func (a *Agent) Run() error {
	slog.Info("starting agent", "address", a.config.Server.Address())

	return a.router().Run(a.config.Server.Address())
}

func (a *Agent) router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestID(), observe())

	r.GET("/healthz", func(ctx *gin.Context) {
		ctx.String(http.StatusOK, "ok")
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler(a.registry)))

	r.POST("/callback", a.callback)
	r.GET("/photo/*ref", a.photo)

	r.GET("/search", func(ctx *gin.Context) {
		input, _ := ctx.GetQuery("input")

		c, err := a.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
		if err != nil {
			slog.Error("failed to upgrade to websocket", "error", err)
			return
		}
		defer c.Close()

		resultChan := a.handler.SearchByUserQuery(ctx.Request.Context(), input)
		for result := range resultChan {
			msg := result.Msg
			if result.Err != nil {
				if result.Err == io.EOF {
					return
				}
				msg = WebSocketsMessage{Type: "error", Data: result.Err.Error()}
			}

			if err := c.WriteJSON(msg); err != nil {
				slog.Error("failed to write to ws connection", "error", err)
				return
			}
		}
	})

	r.POST("/restaurants", func(ctx *gin.Context) {
		var restaurants CreateRestaurantsRequest

		if err := ctx.ShouldBindJSON(&restaurants); err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if err := restaurants.Validate(); err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if err := a.handler.CreateRestaurants(ctx, restaurants.ToModels()); err != nil {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		ctx.JSON(http.StatusCreated, gin.H{"message": "restaurants created successfully"})
	})

	r.GET("/restaurants", func(ctx *gin.Context) {
		limit := queryInt(ctx, "limit", DefaultListLimit)
		if limit < 1 || limit > MaxListLimit {
			limit = DefaultListLimit
		}
		offset := queryInt(ctx, "offset", 0)
		if offset < 0 {
			offset = 0
		}

		restaurants, err := a.handler.ListRestaurants(ctx, limit, offset)
		if err != nil {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		ctx.JSON(http.StatusOK, restaurants)
	})

	return r
}

func queryInt(ctx *gin.Context, key string, def int) int {
	v, ok := ctx.GetQuery(key)
	if !ok {
		return def
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}

	return n
}
