// Web server exposing the query router over HTTP: one-shot resolution,
// chat sessions with parameter carry-over, and rule catalog introspection.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"nlq-router/internal/agent"
	"nlq-router/internal/cli"
	"nlq-router/internal/config"
	"nlq-router/internal/engine"
	"nlq-router/internal/session"
)

const sessionMaxAge = 2 * time.Hour

func main() {
	addr := flag.String("addr", ":8181", "Listen address")
	flag.Parse()

	resolver, cleanup, err := cli.BuildResolver()
	if err != nil {
		log.Fatalf("failed to initialize resolver: %v", err)
	}
	defer cleanup()

	ctx := context.Background()
	fallback, err := agent.NewFallbackAgent(ctx, config.GetAPIKey())
	if err != nil {
		log.Printf("warning: AI fallback agent disabled: %v", err)
	}
	defer fallback.Close()

	sessions := session.NewManager()
	go func() {
		for range time.Tick(15 * time.Minute) {
			if n := sessions.CleanupExpired(sessionMaxAge); n > 0 {
				log.Printf("web: expired %d idle session(s)", n)
			}
		}
	}()

	srv := &server{resolver: resolver, fallback: fallback, sessions: sessions}

	r := gin.Default()
	api := r.Group("/api")
	{
		api.POST("/resolve", srv.handleResolve)
		api.POST("/chat/:session", srv.handleChat)
		api.GET("/rules", srv.handleListRules)
		api.POST("/rules/reload", srv.handleReloadRules)
	}

	log.Printf("nlq-router web listening on %s", *addr)
	if err := r.Run(*addr); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

type server struct {
	resolver *engine.Resolver
	fallback *agent.FallbackAgent
	sessions *session.Manager
}

type resolveRequest struct {
	Query string `json:"query" binding:"required"`
}

type resolveResponse struct {
	Status     engine.Status      `json:"status"`
	Rule       string             `json:"rule,omitempty"`
	Parameters map[string]string  `json:"parameters,omitempty"`
	Rows       []map[string]any   `json:"rows,omitempty"`
	Text       string             `json:"text"`
	Diagnostics engine.Diagnostics `json:"diagnostics"`
	SessionID  string             `json:"session_id,omitempty"`
}

func toResponse(res *engine.Resolution) resolveResponse {
	out := resolveResponse{
		Status:      res.Status,
		Parameters:  res.Parameters,
		Rows:        res.Rows,
		Text:        res.Text,
		Diagnostics: res.Diagnostics,
	}
	if res.Rule != nil {
		out.Rule = res.Rule.Name
	}
	return out
}

// handleResolve runs one stateless resolution.
func (s *server) handleResolve(c *gin.Context) {
	var req resolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res := s.resolver.Resolve(c.Request.Context(), req.Query)
	out := toResponse(res)
	out.Text = s.fallbackText(c.Request.Context(), req.Query, res)
	c.JSON(http.StatusOK, out)
}

// handleChat resolves within a conversation session, seeding extraction
// with parameters remembered from earlier turns.
func (s *server) handleChat(c *gin.Context) {
	var req resolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sess := s.sessions.GetOrCreate(c.Param("session"))
	res := s.resolver.ResolveSeeded(c.Request.Context(), req.Query, sess.SeedValues())
	sess.Record(req.Query, res)

	out := toResponse(res)
	out.Text = s.fallbackText(c.Request.Context(), req.Query, res)
	out.SessionID = sess.SessionID
	c.JSON(http.StatusOK, out)
}

func (s *server) handleListRules(c *gin.Context) {
	rules, err := s.resolver.ListActiveRules(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"rules": rules})
}

func (s *server) handleReloadRules(c *gin.Context) {
	if err := s.resolver.ReloadRules(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"reloaded": true})
}

// fallbackText upgrades the canned fallback text with an LLM-generated
// answer when the agent is configured. The Resolution itself stays
// untouched; only the response text to the client changes.
func (s *server) fallbackText(ctx context.Context, query string, res *engine.Resolution) string {
	if s.fallback == nil {
		return res.Text
	}
	if res.Status != engine.StatusNoMatch && res.Status != engine.StatusNeedsClarification {
		return res.Text
	}
	answer, err := s.fallback.Answer(ctx, query, res.Diagnostics)
	if err != nil {
		log.Printf("web: fallback agent failed: %v", err)
		return res.Text
	}
	if answer != "" {
		return answer
	}
	return res.Text
}
