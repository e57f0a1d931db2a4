package handlers

import (
	"embed"
	"errors"
	"html/template"
	"io"
	"net/http"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Brownie44l1/leaf-doctor/internal/diagnosis"
	"github.com/Brownie44l1/leaf-doctor/internal/imaging"
	"github.com/Brownie44l1/leaf-doctor/internal/logger"
	"github.com/Brownie44l1/leaf-doctor/internal/upload"
)

//go:embed templates/*.html
var templateFS embed.FS

const formField = "image"

type Plants struct {
	Fruits     []string `json:"fruits"`
	Vegetables []string `json:"vegetables"`
}

var SupportedPlants = Plants{
	Fruits:     []string{"🍎 Apple", "🫐 Blueberry", "🍒 Cherry", "🍇 Grape", "🍊 Orange", "🍑 Peach", "🫐 Raspberry", "🍓 Strawberry"},
	Vegetables: []string{"🌽 Corn", "🫑 Pepper", "🥔 Potato", "🫘 Soybean", "🎃 Squash", "🍅 Tomato"},
}

// TensorRequest carries an already preprocessed image.
type TensorRequest struct {
	Image []float32 `json:"image" binding:"required"`
}

type Handler struct {
	service        *diagnosis.Service
	store          *upload.Store
	maxUploadBytes int64
}

func NewHandler(service *diagnosis.Service, store *upload.Store, maxUploadBytes int64) *Handler {
	return &Handler{
		service:        service,
		store:          store,
		maxUploadBytes: maxUploadBytes,
	}
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(h *Handler, allowedOrigins []string) (*gin.Engine, error) {
	tmpl, err := template.New("").
		Funcs(template.FuncMap{"join": strings.Join}).
		ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	r := gin.New()
	r.Use(gin.Recovery(), logger.Middleware(), cors.New(corsConfig(allowedOrigins)))
	r.SetHTMLTemplate(tmpl)

	r.GET("/", h.Index)
	r.GET("/health", h.Health)
	r.POST("/predict", h.PredictPage)
	r.POST("/api/predict", h.PredictJSON)
	r.POST("/api/predict/tensor", h.PredictTensor)
	r.GET("/api/plants", h.ListPlants)
	return r, nil
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{"Content-Type"},
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

func (h *Handler) Health(c *gin.Context) {
	entries, hitRate := h.service.CacheStats()
	c.JSON(http.StatusOK, gin.H{
		"status":         "healthy",
		"cache_entries":  entries,
		"cache_hit_rate": hitRate,
	})
}

func (h *Handler) ListPlants(c *gin.Context) {
	c.JSON(http.StatusOK, SupportedPlants)
}

func (h *Handler) Index(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", gin.H{"Plants": SupportedPlants})
}

func (h *Handler) PredictPage(c *gin.Context) {
	res, status, msg := h.predict(c)
	if res == nil {
		c.HTML(status, "index.html", gin.H{"Plants": SupportedPlants, "Error": msg})
		return
	}
	c.HTML(http.StatusOK, "result.html", gin.H{"Result": res})
}

func (h *Handler) PredictJSON(c *gin.Context) {
	res, status, msg := h.predict(c)
	if res == nil {
		c.JSON(status, gin.H{"error": msg})
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) PredictTensor(c *gin.Context) {
	var req TensorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}

	res, err := h.service.DiagnoseTensor(c.Request.Context(), req.Image)
	if err != nil {
		_ = c.Error(err)
		if errors.Is(err, diagnosis.ErrTensorSize) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		log.Error().Err(err).Msg("prediction failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Prediction failed"})
		return
	}
	c.JSON(http.StatusOK, res)
}

// predict reads the uploaded image and diagnoses it. On failure it returns a
// nil result, the status code and a message safe to show the user.
func (h *Handler) predict(c *gin.Context) (*diagnosis.Result, int, string) {
	if c.Request.ContentLength > h.maxUploadBytes {
		return nil, http.StatusRequestEntityTooLarge, "Image is too large"
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)

	header, err := c.FormFile(formField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, http.StatusRequestEntityTooLarge, "Image is too large"
		}
		return nil, http.StatusBadRequest, "No image file provided. Use 'image' as the form field name"
	}

	file, err := header.Open()
	if err != nil {
		_ = c.Error(err)
		return nil, http.StatusBadRequest, "Failed to read upload"
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		_ = c.Error(err)
		return nil, http.StatusBadRequest, "Failed to read upload"
	}

	log.Debug().Str("filename", header.Filename).Int("bytes", len(data)).Msg("received upload")

	path, err := h.store.Save(header.Filename, data)
	switch {
	case errors.Is(err, upload.ErrExtension):
		return nil, http.StatusBadRequest, "Supported file types: jpg, jpeg, png"
	case err != nil:
		log.Error().Err(err).Msg("failed to save upload")
	case path != "":
		log.Debug().Str("path", path).Msg("saved upload")
	}

	res, err := h.service.Diagnose(c.Request.Context(), data)
	if err != nil {
		_ = c.Error(err)
		if errors.Is(err, imaging.ErrDecode) {
			return nil, http.StatusBadRequest, "Invalid image format. Supported: JPEG, PNG"
		}
		log.Error().Err(err).Msg("prediction failed")
		return nil, http.StatusInternalServerError, "Prediction failed"
	}
	return res, http.StatusOK, ""
}
