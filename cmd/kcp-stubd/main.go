// kcp-stubd is a protocol-conforming stand-in for the KidsClubPlans
// backend: it speaks the chat SSE wire contract and the catalog, weather,
// and weekly-schedule endpoints with scripted data. It exists so the client
// can be exercised end to end without the real service.
package main

import (
	"flag"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/behindthegarage/kidsclubplans-conversational/internal/chat/types"
	"github.com/behindthegarage/kidsclubplans-conversational/internal/pkg/logger"
	"github.com/behindthegarage/kidsclubplans-conversational/internal/pkg/sse"
	"github.com/behindthegarage/kidsclubplans-conversational/internal/schedule"
)

var catalog = []types.Activity{
	{
		Title:           "Nature Scavenger Hunt",
		Description:     "Teams race to find leaves, rocks, and other outdoor items from a picture checklist.",
		Type:            "Outdoor",
		Supplies:        []string{"checklists", "pencils", "collection bags"},
		Instructions:    "Split into teams of 3-4, hand out checklists, set a 20 minute timer.",
		Source:          types.SourceCatalog,
		DurationMinutes: 30,
		TargetAge:       "6-10 years",
		IndoorOutdoor:   "outdoor",
	},
	{
		Title:           "Paper Plate Ring Toss",
		Description:     "Cut out paper plate centers to make rings, then toss them onto paper towel tubes.",
		Type:            "Games",
		Supplies:        []string{"paper plates", "paper towel tubes", "scissors", "tape"},
		Instructions:    "Make 3 rings per child, tape tubes upright, take turns tossing from a line.",
		Source:          types.SourceCatalog,
		DurationMinutes: 25,
		TargetAge:       "5-8 years",
		IndoorOutdoor:   "indoor",
	},
	{
		Title:           "Story Dice Relay",
		Description:     "Kids roll picture dice and build a group story one sentence at a time.",
		Type:            "Creative",
		Supplies:        []string{"story dice", "timer"},
		Instructions:    "Sit in a circle, each child rolls and adds a sentence using the picture shown.",
		Source:          types.SourceCatalog,
		DurationMinutes: 20,
		TargetAge:       "7-11 years",
		IndoorOutdoor:   "indoor",
	},
}

const scriptedReply = "Here are a few ideas that fit your group. " +
	"The scavenger hunt works well right after snack when the kids need to move, " +
	"and the ring toss is a good rainy-day fallback. " +
	"Want me to build these into a full afternoon plan?"

type stubServer struct {
	log *logger.Logger

	mu    sync.Mutex
	weeks map[int]schedule.WeeklySchedule
}

func (s *stubServer) handleChat(c *gin.Context) {
	var req types.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"detail": "invalid request body"})
		return
	}

	conversationID := req.ConversationID
	if conversationID == "" {
		conversationID = uuid.New().String()
	}

	w := sse.NewWriter(c)
	lower := strings.ToLower(req.Message)

	// Scripted failure path for exercising the client's error handling.
	if strings.Contains(lower, "boom") {
		w.Send("error", gin.H{"message": "scripted backend failure"})
		w.Done()
		return
	}

	w.Send("tool_call", gin.H{
		"name":      "search_activities",
		"arguments": gin.H{"query": req.Message, "limit": 2},
	})
	for _, act := range catalog[:2] {
		w.Send("activity", act)
		time.Sleep(10 * time.Millisecond)
	}
	w.Comment("keep-alive")

	for _, word := range strings.SplitAfter(scriptedReply, " ") {
		select {
		case <-w.ClientGone():
			return
		default:
		}
		w.Send("content", gin.H{"content": word})
		time.Sleep(15 * time.Millisecond)
	}

	w.Send("done", gin.H{"conversation_id": conversationID})
	w.Done()
}

func (s *stubServer) handleActivitySearch(c *gin.Context) {
	var req struct {
		Query string `json:"query"`
		Limit int    `json:"limit"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"detail": "invalid request body"})
		return
	}
	if req.Limit <= 0 || req.Limit > len(catalog) {
		req.Limit = len(catalog)
	}

	var results []types.Activity
	for _, act := range catalog {
		if req.Query == "" ||
			strings.Contains(strings.ToLower(act.Title), strings.ToLower(req.Query)) ||
			strings.Contains(strings.ToLower(act.Description), strings.ToLower(req.Query)) {
			results = append(results, act)
		}
		if len(results) == req.Limit {
			break
		}
	}
	c.JSON(200, gin.H{"results": results, "count": len(results)})
}

func (s *stubServer) handleActivitySave(c *gin.Context) {
	var req map[string]any
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"detail": "invalid request body"})
		return
	}
	c.JSON(200, gin.H{
		"success":     true,
		"activity_id": uuid.New().String(),
		"message":     "Activity saved successfully!",
		"searchable":  true,
	})
}

func (s *stubServer) handleWeather(c *gin.Context) {
	var req struct {
		Location string `json:"location"`
		Date     string `json:"date"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"detail": "invalid request body"})
		return
	}

	temp := 68.0
	c.JSON(200, gin.H{
		"location":             req.Location,
		"date":                 req.Date,
		"temperature_f":        temp,
		"temperature_c":        20.0,
		"conditions":           "sunny",
		"description":          "clear sky",
		"precipitation_chance": 10,
		"outdoor_suitable":     true,
	})
}

func (s *stubServer) handleWeeklySave(c *gin.Context) {
	var sched schedule.WeeklySchedule
	if err := c.ShouldBindJSON(&sched); err != nil {
		c.JSON(400, gin.H{"detail": "invalid request body"})
		return
	}

	s.mu.Lock()
	s.weeks[sched.WeekNumber] = sched
	s.mu.Unlock()

	c.JSON(200, gin.H{
		"success":          true,
		"message":          fmt.Sprintf("Week %d saved successfully", sched.WeekNumber),
		"activities_count": len(sched.Activities),
	})
}

func (s *stubServer) handleWeeklyGet(c *gin.Context) {
	var week int
	if _, err := fmt.Sscanf(c.Param("week"), "%d", &week); err != nil {
		c.JSON(400, gin.H{"detail": "invalid week number"})
		return
	}

	s.mu.Lock()
	sched, ok := s.weeks[week]
	s.mu.Unlock()

	if !ok {
		c.JSON(200, gin.H{"success": true, "week_number": week, "theme": "", "activities": []schedule.Entry{}})
		return
	}
	c.JSON(200, gin.H{
		"success":     true,
		"week_number": sched.WeekNumber,
		"theme":       sched.Theme,
		"activities":  sched.Activities,
	})
}

func (s *stubServer) handleWeeklyDuplicate(c *gin.Context) {
	var req struct {
		FromWeek int `json:"from_week"`
		ToWeek   int `json:"to_week"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"detail": "invalid request body"})
		return
	}

	s.mu.Lock()
	source, ok := s.weeks[req.FromWeek]
	if ok {
		source.WeekNumber = req.ToWeek
		s.weeks[req.ToWeek] = source
	}
	s.mu.Unlock()

	if !ok {
		c.JSON(404, gin.H{"detail": fmt.Sprintf("Week %d not found", req.FromWeek)})
		return
	}
	c.JSON(200, gin.H{
		"success":          true,
		"message":          fmt.Sprintf("Week %d duplicated to Week %d", req.FromWeek, req.ToWeek),
		"activities_count": len(source.Activities),
	})
}

func main() {
	addr := flag.String("addr", ":8000", "listen address")
	logLevel := flag.String("log-level", "info", "log level")
	flag.Parse()

	logCfg := logger.DefaultConfig()
	logCfg.Level = *logLevel
	if err := logger.InitGlobal(logCfg); err != nil {
		panic(err)
	}
	log := logger.L().Named("stubd")
	defer log.Sync()

	srv := &stubServer{
		log:   log,
		weeks: make(map[int]schedule.WeeklySchedule),
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "healthy"})
	})
	r.POST("/chat", srv.handleChat)
	r.POST("/api/activities/search", srv.handleActivitySearch)
	r.POST("/api/activities/save", srv.handleActivitySave)
	r.POST("/api/weather", srv.handleWeather)
	r.POST("/api/schedules/weekly/save", srv.handleWeeklySave)
	r.GET("/api/schedules/weekly/:week", srv.handleWeeklyGet)
	r.POST("/api/schedules/weekly/duplicate", srv.handleWeeklyDuplicate)

	log.Info("stub backend listening", zap.String("addr", *addr))
	if err := r.Run(*addr); err != nil {
		log.Fatal("server exited", zap.Error(err))
	}
}
