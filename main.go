package main

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/theidealshukla/ColdMailBot-api/campaign"
	"github.com/theidealshukla/ColdMailBot-api/config"
	"github.com/theidealshukla/ColdMailBot-api/contacts"
	"github.com/theidealshukla/ColdMailBot-api/logger"
	"github.com/theidealshukla/ColdMailBot-api/mailer"
	"github.com/theidealshukla/ColdMailBot-api/models"
	"github.com/theidealshukla/ColdMailBot-api/template"
)

// transportFactory builds the mail transport for one campaign's credentials.
// Swappable so handler tests can substitute a recording stub.
type transportFactory func(creds models.Credentials) mailer.Transport

type Server struct {
	router       *gin.Engine
	config       *config.Config
	logger       zerolog.Logger
	runner       *campaign.Runner
	newTransport transportFactory
	server       *http.Server
}

func NewServer(cfg *config.Config, log zerolog.Logger) *Server {
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	newTransport := func(creds models.Credentials) mailer.Transport {
		return mailer.NewSMTP(creds)
	}
	if cmd := cfg.App.SendCommand; cmd != "" {
		log.Info().Str("command", cmd).Msg("delivery delegated to external send command")
		newTransport = func(creds models.Credentials) mailer.Transport {
			return mailer.NewScript(cmd, creds)
		}
	}

	s := &Server{
		router:       router,
		config:       cfg,
		logger:       log,
		runner:       campaign.NewRunner(log),
		newTransport: newTransport,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	// Health check
	s.router.GET("/health", s.healthCheck)

	api := s.router.Group("/api", s.apiKeyAuth())

	// Buffered campaign, contact list as CSV upload
	api.POST("/campaigns", s.createCampaign)

	// Buffered campaign, contact list in the JSON body
	api.POST("/campaigns/json", s.createCampaignJSON)

	// Streaming campaign, progress pushed as Server-Sent Events
	api.POST("/campaigns/stream", s.streamCampaign)
}

// apiKeyAuth enforces X-API-Key when keys are configured. An empty key list
// leaves the API open.
func (s *Server) apiKeyAuth() gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(s.config.App.APIKeys))
	for _, key := range s.config.App.APIKeys {
		allowed[key] = struct{}{}
	}

	return func(c *gin.Context) {
		if len(allowed) == 0 {
			c.Next()
			return
		}
		if _, ok := allowed[c.GetHeader("X-API-Key")]; !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":    "invalid or missing API key",
				"category": "authentication",
			})
			return
		}
		c.Next()
	}
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "healthy",
		"service":     "coldmailbot-api",
		"version":     "1.0.0",
		"environment": s.config.App.Env,
	})
}

func (s *Server) createCampaign(c *gin.Context) {
	camp, cleanup, err := s.campaignFromMultipart(c)
	defer cleanup()
	if err != nil {
		s.errorResponse(c, err)
		return
	}

	result, err := s.runner.Run(c.Request.Context(), *camp)
	if err != nil {
		s.errorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

type campaignJSONRequest struct {
	SenderEmail  string                  `json:"sender_email" binding:"required"`
	AppPassword  string                  `json:"app_password" binding:"required"`
	SMTPHost     string                  `json:"smtp_host"`
	SMTPPort     int                     `json:"smtp_port"`
	Contacts     []contacts.ContactInput `json:"contacts" binding:"required"`
	Subject      string                  `json:"subject"`
	Body         string                  `json:"body"`
	SenderName   string                  `json:"sender_name"`
	DelaySeconds *int                    `json:"delay_seconds"`
}

func (s *Server) createCampaignJSON(c *gin.Context) {
	var req campaignJSONRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.errorResponse(c, models.WrapValidation("%v", err))
		return
	}

	list, err := contacts.FromJSON(req.Contacts)
	if err != nil {
		s.errorResponse(c, err)
		return
	}
	if err := contacts.CheckLimit(len(list), s.config.App.MaxBatchSize); err != nil {
		s.errorResponse(c, err)
		return
	}

	tmpl := template.Default()
	tmpl.DelaySeconds = s.config.App.DefaultDelaySeconds
	if req.Subject != "" {
		tmpl.Subject = req.Subject
	}
	if req.Body != "" {
		tmpl.Body = req.Body
	}
	if req.SenderName != "" {
		tmpl.SenderName = req.SenderName
	}
	if req.DelaySeconds != nil {
		if *req.DelaySeconds < 0 {
			s.errorResponse(c, models.WrapValidation("delay_seconds must be a non-negative number"))
			return
		}
		tmpl.DelaySeconds = *req.DelaySeconds
	}

	creds := s.resolveCredentials(req.SenderEmail, req.AppPassword, req.SMTPHost, req.SMTPPort)

	result, err := s.runner.Run(c.Request.Context(), campaign.Campaign{
		Contacts:    list,
		Template:    tmpl,
		SenderEmail: creds.SenderEmail,
		Transport:   s.newTransport(creds),
	})
	if err != nil {
		s.errorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (s *Server) streamCampaign(c *gin.Context) {
	camp, cleanup, err := s.campaignFromMultipart(c)
	defer cleanup()
	if err != nil {
		s.errorResponse(c, err)
		return
	}

	sink := &sseSink{c: c}
	camp.Sink = sink

	_, err = s.runner.Run(c.Request.Context(), *camp)
	if err != nil {
		// Nothing committed yet: verification failures arrive before the
		// first event and can still use a status code.
		if !sink.committed {
			s.errorResponse(c, err)
			return
		}
		_ = sink.Emit(campaign.Event{
			Type:  campaign.EventFatalError,
			Error: err.Error(),
		})
	}
}

// sseSink streams campaign events over a long-lived response. Headers are
// written lazily on the first event so pre-stream failures keep their HTTP
// status.
type sseSink struct {
	c         *gin.Context
	committed bool
}

func (s *sseSink) Emit(event campaign.Event) error {
	if !s.committed {
		s.c.Writer.Header().Set("Content-Type", "text/event-stream")
		s.c.Writer.Header().Set("Cache-Control", "no-cache")
		s.c.Writer.Header().Set("Connection", "keep-alive")
		s.committed = true
	}
	s.c.SSEvent(string(event.Type), event)
	s.c.Writer.Flush()
	return nil
}

// campaignFromMultipart assembles a campaign from an uploaded form: sender
// credentials, the contacts CSV, and optional template and attachment files.
// The returned cleanup removes every file this request wrote, best-effort.
func (s *Server) campaignFromMultipart(c *gin.Context) (*campaign.Campaign, func(), error) {
	var saved []string
	cleanup := func() {
		for _, path := range saved {
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				s.logger.Warn().Err(err).Str("file", path).Msg("failed to remove uploaded file")
			}
		}
	}

	senderEmail := strings.TrimSpace(c.PostForm("sender_email"))
	appPassword := c.PostForm("app_password")
	if senderEmail == "" {
		return nil, cleanup, models.WrapValidation("sender_email is required")
	}
	if appPassword == "" {
		return nil, cleanup, models.WrapValidation("app_password is required")
	}
	smtpPort := 0
	if v := c.PostForm("smtp_port"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, cleanup, models.WrapValidation("smtp_port must be a number")
		}
		smtpPort = n
	}
	creds := s.resolveCredentials(senderEmail, appPassword, c.PostForm("smtp_host"), smtpPort)

	contactsFile, err := c.FormFile("contacts")
	if err != nil {
		return nil, cleanup, models.WrapValidation("contacts file is required")
	}
	contactsPath, err := s.saveUpload(c, contactsFile)
	if err != nil {
		return nil, cleanup, err
	}
	saved = append(saved, contactsPath)

	f, err := os.Open(contactsPath)
	if err != nil {
		return nil, cleanup, models.WrapFatal(err)
	}
	list, err := contacts.FromCSV(f)
	f.Close()
	if err != nil {
		return nil, cleanup, err
	}
	if err := contacts.CheckLimit(len(list), s.config.App.MaxBatchSize); err != nil {
		return nil, cleanup, err
	}

	tmpl := template.Default()
	tmpl.DelaySeconds = s.config.App.DefaultDelaySeconds
	if templateFile, err := c.FormFile("template"); err == nil {
		tf, openErr := templateFile.Open()
		if openErr != nil {
			return nil, cleanup, models.WrapValidation("unable to read template file: %v", openErr)
		}
		parsed, parseErr := template.ParseFile(tf, tmpl)
		tf.Close()
		if parseErr != nil {
			return nil, cleanup, models.WrapValidation("unable to read template file: %v", parseErr)
		}
		tmpl = parsed
	}
	if v := c.PostForm("delay_seconds"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, cleanup, models.WrapValidation("delay_seconds must be a non-negative number")
		}
		tmpl.DelaySeconds = n
	}
	if v := strings.TrimSpace(c.PostForm("sender_name")); v != "" {
		tmpl.SenderName = v
	}

	attachmentPath := ""
	if attachment, err := c.FormFile("attachment"); err == nil {
		attachmentPath, err = s.saveUpload(c, attachment)
		if err != nil {
			return nil, cleanup, err
		}
		saved = append(saved, attachmentPath)
	}

	return &campaign.Campaign{
		Contacts:       list,
		Template:       tmpl,
		SenderEmail:    creds.SenderEmail,
		AttachmentPath: attachmentPath,
		Transport:      s.newTransport(creds),
	}, cleanup, nil
}

// saveUpload stores a form file under the configured upload directory with a
// unique name. The file is owned by this request and removed once the
// campaign finishes.
func (s *Server) saveUpload(c *gin.Context, fh *multipart.FileHeader) (string, error) {
	name := uuid.NewString() + "_" + filepath.Base(fh.Filename)
	dst := filepath.Join(s.config.App.UploadDir, name)
	if err := c.SaveUploadedFile(fh, dst); err != nil {
		return "", models.WrapFatal(fmt.Errorf("save upload %s: %w", fh.Filename, err))
	}
	return dst, nil
}

func (s *Server) resolveCredentials(senderEmail, appPassword, host string, port int) models.Credentials {
	creds := models.Credentials{
		SenderEmail: senderEmail,
		AppPassword: appPassword,
		Host:        strings.TrimSpace(host),
		Port:        port,
	}
	if creds.Host == "" {
		creds.Host = s.config.SMTP.Host
	}
	if creds.Port == 0 {
		creds.Port = s.config.SMTP.Port
	}
	return creds
}

func (s *Server) errorResponse(c *gin.Context, err error) {
	status := models.HTTPStatus(err)
	if status >= http.StatusInternalServerError && !errors.Is(err, models.ErrFatal) {
		s.logger.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
	}
	c.JSON(status, gin.H{
		"error":    err.Error(),
		"category": models.Category(err),
	})
}

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%s", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  time.Duration(s.config.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(s.config.Server.WriteTimeoutSeconds) * time.Second,
		IdleTimeout:  time.Duration(s.config.Server.IdleTimeoutSeconds) * time.Second,
	}

	s.logger.Info().Str("addr", addr).Str("env", s.config.App.Env).Msg("server starting")

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func main() {
	cfg := config.MustLoadConfig(config.GetEnv("CONFIG_PATH", "config.yaml"))
	log := logger.New(cfg.App.Env, cfg.App.LogLevel)

	server := NewServer(cfg, log)
	if err := server.Start(); err != nil {
		log.Fatal().Err(err).Msg("failed to start server")
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}
