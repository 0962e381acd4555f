package animals

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"menagerie/internal/core"
	"menagerie/internal/logging"
)

// MsgMalformedAnimal is the plain-text body of every 400 response.
const MsgMalformedAnimal = "The animal is not properly formatted."

// MaxBodyBytes bounds create request bodies.
const MaxBodyBytes = 100 << 10

// Store is the subset of core.Store the handlers need.
type Store interface {
	Filter(ctx context.Context, criteria core.Criteria) []core.Animal
	FindByID(ctx context.Context, id string) (core.Animal, bool)
	Create(ctx context.Context, candidate core.Candidate) (core.Animal, core.Result, error)
	Len() int
}

// Handler serves the animals routes.
type Handler struct {
	Store Store
}

// NewHandler constructs a Handler over store.
func NewHandler(store Store) *Handler {
	return &Handler{Store: store}
}

func (h *Handler) list(c *gin.Context) {
	criteria := core.CriteriaFromQuery(c.Request.URL.Query())
	animals := h.Store.Filter(c.Request.Context(), criteria)
	if animals == nil {
		animals = []core.Animal{}
	}
	c.JSON(http.StatusOK, animals)
}

func (h *Handler) get(c *gin.Context) {
	animal, ok := h.Store.FindByID(c.Request.Context(), c.Param("id"))
	if !ok {
		c.Status(http.StatusNotFound)
		return
	}
	c.JSON(http.StatusOK, animal)
}

func (h *Handler) create(c *gin.Context) {
	ctx := c.Request.Context()
	logger := logging.From(ctx)

	candidate, err := bindCandidate(c)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.String(http.StatusRequestEntityTooLarge, http.StatusText(http.StatusRequestEntityTooLarge))
			return
		}
		logger.Debug("undecodable animal body", "error", err)
		c.String(http.StatusBadRequest, MsgMalformedAnimal)
		return
	}
	logger.Debug("animal received", "body", candidate)

	animal, res, err := h.Store.Create(ctx, candidate)
	switch {
	case errors.Is(err, core.ErrInvalidAnimal):
		logger.Info("animal rejected", "violations", res.Violations)
		c.String(http.StatusBadRequest, MsgMalformedAnimal)
	case err != nil:
		logger.Error("failed to create animal", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save animal"})
	default:
		c.JSON(http.StatusOK, animal)
	}
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "animals": h.Store.Len()})
}

var errUnsupportedBody = errors.New("unsupported request body")

// bindCandidate binds a JSON object or an urlencoded form through gin. Form
// keys with a [] suffix and repeated keys become string lists.
func bindCandidate(c *gin.Context) (core.Candidate, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxBodyBytes)
	switch c.ContentType() {
	case binding.MIMEJSON, "":
		var candidate core.Candidate
		if err := c.ShouldBindJSON(&candidate); err != nil {
			return nil, err
		}
		if candidate == nil {
			return nil, errUnsupportedBody
		}
		return candidate, nil
	case binding.MIMEPOSTForm:
		form := map[string][]string{}
		if err := c.ShouldBindWith(&form, binding.FormPost); err != nil {
			return nil, err
		}
		return candidateFromForm(form), nil
	default:
		return nil, errUnsupportedBody
	}
}

func candidateFromForm(form map[string][]string) core.Candidate {
	candidate := make(core.Candidate, len(form))
	for key, values := range form {
		if strings.HasSuffix(key, "[]") {
			continue
		}
		if len(values) == 1 {
			candidate[key] = values[0]
			continue
		}
		candidate[key] = append([]string(nil), values...)
	}
	for key, values := range form {
		name, ok := strings.CutSuffix(key, "[]")
		if !ok {
			continue
		}
		var list []string
		switch existing := candidate[name].(type) {
		case string:
			list = []string{existing}
		case []string:
			list = existing
		}
		candidate[name] = append(list, values...)
	}
	return candidate
}
