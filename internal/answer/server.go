package answer

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"docs-chat/internal/chat"
)

type chatRequest struct {
	Question string `json:"question" binding:"required"`
	TopK     int    `json:"top_k"`
}

type chatResponse struct {
	Answer  string        `json:"answer"`
	Sources []chat.Source `json:"sources"`
}

// NewRouter builds the HTTP surface of the local answer service. It speaks
// the same wire contract the widget uses against the hosted API.
func NewRouter(svc *Service) *gin.Engine {
	r := gin.Default()
	r.Use(cors())
	r.Use(routeMatcher())

	r.POST("/chat", func(c *gin.Context) {
		var req chatRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(400, gin.H{"error": "invalid request"})
			return
		}

		log.Info().Str("question", req.Question).Int("topK", req.TopK).Msg("Answering question")

		answerText, sources, err := svc.Answer(c.Request.Context(), req.Question, req.TopK)
		if err != nil {
			log.Error().Err(err).Msg("Failed to answer question")
			c.JSON(500, gin.H{"error": err.Error()})
			return
		}

		c.JSON(200, chatResponse{Answer: answerText, Sources: sources})
	})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "UP"})
	})

	return r
}

// Run serves the router on the given port.
func Run(svc *Service, port int) error {
	return NewRouter(svc).Run(fmt.Sprintf(":%d", port))
}

func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}
		c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Max-Age", "3600")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}

// routeMatcher mirrors the deployment's route-protection middleware: it
// matches every path except auth endpoints and static assets and currently
// passes all of them through. Session validation hooks in here when a
// deployment needs protected routes.
func routeMatcher() gin.HandlerFunc {
	skipPrefixes := []string{"/api/auth", "/_next/static", "/_next/image", "/favicon.ico"}
	return func(c *gin.Context) {
		for _, prefix := range skipPrefixes {
			if strings.HasPrefix(c.Request.URL.Path, prefix) {
				c.Next()
				return
			}
		}
		c.Next()
	}
}
