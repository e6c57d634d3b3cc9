package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	"campaign-studio-bot/internal/campaign"
	"campaign-studio-bot/internal/gemini"
	"campaign-studio-bot/internal/httpclient"
)

type server struct {
	gem    *gemini.Client
	orch   *campaign.Orchestrator
	logger *slog.Logger
}

type apiError struct {
	Error string `json:"error"`
}

type anglesResponse struct {
	Angles []campaign.Angle `json:"angles"`
}

type assetPayload struct {
	Role      string   `json:"role"`
	Image     string   `json:"image"`
	Copy      string   `json:"copy,omitempty"`
	Headlines []string `json:"headlines,omitempty"`
}

type campaignResponse struct {
	Assets []assetPayload `json:"assets"`
}

type variationResponse struct {
	Image string `json:"image"`
}

func main() {
	_ = godotenv.Load()

	apiKey := strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
	if apiKey == "" {
		panic("GEMINI_API_KEY is required")
	}

	addr := strings.TrimSpace(getEnv("WEB_ADDR", ":8080"))

	httpTimeout := time.Duration(getEnvInt("HTTP_TIMEOUT_SECONDS", 180)) * time.Second
	if httpTimeout <= 0 {
		httpTimeout = 180 * time.Second
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	httpClient := httpclient.New(httpclient.Options{
		PreferIPv4: getEnvBool("PREFER_IPV4", true),
		Timeout:    httpTimeout,
	})

	gem := gemini.New(gemini.Options{
		APIKey:     apiKey,
		BaseURL:    strings.TrimSpace(getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com")),
		APIVersion: strings.TrimSpace(getEnv("GEMINI_API_VERSION", "v1beta")),
		TextModel:  strings.TrimSpace(getEnv("GEMINI_TEXT_MODEL", "")),
		ImageModel: strings.TrimSpace(getEnv("GEMINI_IMAGE_MODEL", "")),
		HTTPClient: httpClient,
		Logger:     logger,
	})

	s := &server{
		gem: gem,
		orch: campaign.NewOrchestrator(campaign.OrchestratorOptions{
			Generator: gem,
			Logger:    logger,
		}),
		logger: logger,
	}

	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/angles", s.handleAngles).Methods(http.MethodPost)
	api.HandleFunc("/campaign", s.handleCampaign).Methods(http.MethodPost)
	api.HandleFunc("/variation", s.handleVariation).Methods(http.MethodPost)

	srv := &http.Server{
		Addr:              addr,
		Handler:           withLogging(r, logger),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       90 * time.Second,
	}

	logger.Info("web started", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", "err", err)
	}
}

const maxUploadBytes = 25 << 20

func (s *server) handleAngles(w http.ResponseWriter, r *http.Request) {
	in, ok := s.parseInputs(w, r)
	if !ok {
		return
	}

	ctrl := campaign.NewController(campaign.ControllerOptions{
		Generator: s.gem,
		Logger:    s.logger,
	})

	ctx, cancel := requestContext(r)
	defer cancel()

	angles, err := ctrl.RequestAngles(ctx, in)
	if err != nil {
		s.logger.Error("angles generation failed", "err", err)
		writeJSON(w, http.StatusBadGateway, apiError{Error: campaign.UserMessage(err)})
		return
	}

	writeJSON(w, http.StatusOK, anglesResponse{Angles: angles})
}

func (s *server) handleCampaign(w http.ResponseWriter, r *http.Request) {
	in, ok := s.parseInputs(w, r)
	if !ok {
		return
	}

	angle := campaign.Angle{
		Title:       strings.TrimSpace(r.FormValue("angle_title")),
		Description: strings.TrimSpace(r.FormValue("angle_description")),
	}
	if angle.Title == "" {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "missing angle_title"})
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	assets, err := s.orch.GenerateAssets(ctx, in, angle)
	if err != nil {
		s.logger.Error("campaign generation failed", "err", err)
		writeJSON(w, http.StatusBadGateway, apiError{Error: campaign.UserMessage(err)})
		return
	}

	resp := campaignResponse{Assets: make([]assetPayload, 0, len(assets))}
	for _, asset := range assets {
		resp.Assets = append(resp.Assets, assetPayload{
			Role:      string(asset.Role),
			Image:     dataURL(asset.Image),
			Copy:      asset.Copy,
			Headlines: asset.Headlines,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *server) handleVariation(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "invalid multipart form"})
		return
	}

	photo, err := readImageFile(r, "image")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: err.Error()})
		return
	}
	banner, err := readImageFile(r, "banner")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: err.Error()})
		return
	}

	instruction := strings.TrimSpace(r.FormValue("instruction"))
	if instruction == "" {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "missing instruction"})
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	img, err := s.gem.GenerateImage(ctx, campaign.VariationPrompt(instruction), []gemini.Image{photo, banner}, gemini.ImageConfig{})
	if err != nil {
		s.logger.Error("banner variation failed", "err", err)
		writeJSON(w, http.StatusBadGateway, apiError{Error: campaign.UserMessage(err)})
		return
	}

	writeJSON(w, http.StatusOK, variationResponse{Image: dataURL(img)})
}

// parseInputs reads the shared multipart fields of /api/angles and
// /api/campaign and writes the error response itself on failure.
func (s *server) parseInputs(w http.ResponseWriter, r *http.Request) (campaign.Inputs, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "invalid multipart form"})
		return campaign.Inputs{}, false
	}

	photo, err := readImageFile(r, "image")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: err.Error()})
		return campaign.Inputs{}, false
	}

	in := campaign.Inputs{
		Photo:          photo,
		ProductName:    strings.TrimSpace(r.FormValue("product_name")),
		TargetAudience: strings.TrimSpace(r.FormValue("target_audience")),
		DesiredVibe:    strings.TrimSpace(r.FormValue("desired_vibe")),
	}
	if !in.Complete() {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "product_name, target_audience, desired_vibe and image are all required"})
		return campaign.Inputs{}, false
	}

	return in, true
}

func readImageFile(r *http.Request, field string) (gemini.Image, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return gemini.Image{}, fmt.Errorf("missing %s", field)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return gemini.Image{}, fmt.Errorf("failed to read %s", field)
	}

	mimeType := strings.TrimSpace(header.Header.Get("Content-Type"))
	if strings.Contains(mimeType, ";") {
		mimeType = strings.TrimSpace(strings.SplitN(mimeType, ";", 2)[0])
	}
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(data)
		if strings.Contains(mimeType, ";") {
			mimeType = strings.TrimSpace(strings.SplitN(mimeType, ";", 2)[0])
		}
	}
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = "image/jpeg"
	}

	return gemini.Image{Data: data, MimeType: mimeType}, nil
}

func requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	timeout := time.Duration(getEnvInt("REQUEST_TIMEOUT_SECONDS", 240)) * time.Second
	if timeout <= 0 {
		timeout = 240 * time.Second
	}
	return context.WithTimeout(r.Context(), timeout)
}

func dataURL(img gemini.Image) string {
	mimeType := img.MimeType
	if mimeType == "" {
		mimeType = "image/png"
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("content-type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func withLogging(next http.Handler, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logger.Info("http", "method", r.Method, "path", r.URL.Path, "dur_ms", time.Since(start).Milliseconds())
	})
}
