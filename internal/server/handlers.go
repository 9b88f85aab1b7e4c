package server

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/agenthands/lineage/internal/core/model"
	"github.com/agenthands/lineage/internal/core/store"
	"github.com/agenthands/lineage/internal/core/validate"
	"github.com/agenthands/lineage/internal/logger"
)

// maxSnapshotBytes bounds an imported snapshot body.
const maxSnapshotBytes = 8 << 20

type AddMemberRequest struct {
	Name      string          `json:"name" validate:"required"`
	Gender    model.Gender    `json:"gender" validate:"omitempty,oneof=male female other"`
	BirthDate string          `json:"birthDate" validate:"omitempty,datetime=2006-01-02"`
	DeathDate string          `json:"deathDate" validate:"omitempty,datetime=2006-01-02"`
	Photo     string          `json:"photo"`
	Note      string          `json:"note"`
	Position  *model.Position `json:"position"`
}

type SelectRequest struct {
	ID string `json:"id" validate:"required"`
}

// bind decodes the JSON body into req and validates it, answering 400 on
// failure.
func (s *Server) bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return false
	}
	if err := s.validate.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	return true
}

func (s *Server) ListMembers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"members": s.Store.Persons()})
}

func (s *Server) AddMember(c *gin.Context) {
	var req AddMemberRequest
	if !s.bind(c, &req) {
		return
	}

	p := s.Store.AddPerson(model.Person{
		Name:      req.Name,
		Gender:    req.Gender,
		BirthDate: req.BirthDate,
		DeathDate: req.DeathDate,
		Photo:     req.Photo,
		Note:      req.Note,
		Position:  req.Position,
	})
	mutationsTotal.WithLabelValues("add_person").Inc()
	logger.Debug("member added", "id", p.ID)

	c.JSON(http.StatusCreated, p)
}

func (s *Server) GetMember(c *gin.Context) {
	p, ok := s.Store.Person(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Member not found"})
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) UpdateMember(c *gin.Context) {
	var patch model.PersonPatch
	if !s.bind(c, &patch) {
		return
	}
	if patch.Name != nil && *patch.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name must not be empty"})
		return
	}

	p, ok := s.Store.UpdatePerson(c.Param("id"), patch)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Member not found"})
		return
	}
	mutationsTotal.WithLabelValues("update_person").Inc()
	c.JSON(http.StatusOK, p)
}

// DeleteMember answers 204 whether or not the id existed.
func (s *Server) DeleteMember(c *gin.Context) {
	if s.Store.DeletePerson(c.Param("id")) {
		mutationsTotal.WithLabelValues("delete_person").Inc()
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) ListRelationships(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"relationships": s.Store.Relationships()})
}

func (s *Server) AddRelationship(c *gin.Context) {
	var req model.Candidate
	if !s.bind(c, &req) {
		return
	}

	rel, res := s.Store.Connect(req)
	validationsTotal.WithLabelValues(outcomeLabel(res)).Inc()
	switch {
	case res.Reason == validate.ReasonUnknownPerson:
		c.JSON(http.StatusNotFound, res)
		return
	case !res.Valid:
		c.JSON(http.StatusConflict, res)
		return
	}
	mutationsTotal.WithLabelValues("add_relationship").Inc()
	c.JSON(http.StatusCreated, rel)
}

func (s *Server) ValidateRelationship(c *gin.Context) {
	var req model.Candidate
	if !s.bind(c, &req) {
		return
	}

	res := s.Store.Validate(req)
	validationsTotal.WithLabelValues(outcomeLabel(res)).Inc()
	c.JSON(http.StatusOK, res)
}

func (s *Server) DeleteRelationship(c *gin.Context) {
	if s.Store.DeleteRelationship(c.Param("id")) {
		mutationsTotal.WithLabelValues("delete_relationship").Inc()
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) GetSelection(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"id": s.Store.Selection()})
}

func (s *Server) Select(c *gin.Context) {
	var req SelectRequest
	if !s.bind(c, &req) {
		return
	}
	if !s.Store.Select(req.ID) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Nothing to select with that id"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": req.ID})
}

func (s *Server) ClearSelection(c *gin.Context) {
	s.Store.ClearSelection()
	c.Status(http.StatusNoContent)
}

func (s *Server) ExportSnapshot(c *gin.Context) {
	c.JSON(http.StatusOK, s.Store.ExportSnapshot())
}

func (s *Server) ImportSnapshot(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxSnapshotBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	report, err := s.Store.ImportJSON(body)
	if err != nil {
		s.importFailed(c, report, err)
		return
	}
	importsTotal.WithLabelValues("ok").Inc()
	s.loadFailed.Store(false)
	c.JSON(http.StatusOK, gin.H{"report": report})
}

func (s *Server) GetSettings(c *gin.Context) {
	c.JSON(http.StatusOK, s.Store.Settings())
}

func (s *Server) UpdateSettings(c *gin.Context) {
	var patch model.SettingsPatch
	if !s.bind(c, &patch) {
		return
	}

	settings, err := s.Store.UpdateSettings(patch)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, settings)
}

type MessageResponse struct {
	Settings model.Settings    `json:"settings"`
	Layout   []model.Placement `json:"layout"`
	Report   *validate.Report  `json:"report,omitempty"`
	Error    string            `json:"error,omitempty"`
}

// ApplyMessage handles the configuration message an embedding page posts.
func (s *Server) ApplyMessage(c *gin.Context) {
	var msg model.ConfigMessage
	if !s.bind(c, &msg) {
		return
	}

	resp, err := s.applyMessage(msg)
	if err != nil {
		s.importFailed(c, *resp.Report, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) applyMessage(msg model.ConfigMessage) (MessageResponse, error) {
	report, err := s.Store.ApplyMessage(msg)
	resp := MessageResponse{Report: &report}
	if err != nil {
		resp.Error = err.Error()
		resp.Settings = s.Store.Settings()
		return resp, err
	}
	if msg.InitialData != nil {
		importsTotal.WithLabelValues("ok").Inc()
		s.loadFailed.Store(false)
	} else {
		resp.Report = nil
	}
	resp.Settings = s.Store.Settings()
	resp.Layout = s.layout()
	return resp, nil
}

func (s *Server) importFailed(c *gin.Context, report validate.Report, err error) {
	switch {
	case errors.Is(err, store.ErrMalformedSnapshot), errors.Is(err, store.ErrInvalidSettings):
		importsTotal.WithLabelValues("malformed").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrForestViolation):
		importsTotal.WithLabelValues("rejected").Inc()
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "report": report})
	default:
		logger.Error("import failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to import"})
	}
}

func (s *Server) layout() []model.Placement {
	start := time.Now()
	placements := s.Store.Layout()
	layoutDuration.Observe(time.Since(start).Seconds())
	return placements
}

func (s *Server) Layout(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"placements": s.layout(), "settings": s.Store.Settings()})
}

func (s *Server) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, s.Store.Stats())
}

func (s *Server) SaveHandler(c *gin.Context) {
	if err := s.Save(c.Request.Context()); err != nil {
		s.persistFailed(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "saved"})
}

func (s *Server) LoadHandler(c *gin.Context) {
	ok, err := s.Load(c.Request.Context())
	if err != nil {
		s.persistFailed(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"loaded": ok})
}

func (s *Server) persistFailed(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrPersistenceDisabled):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrForestViolation):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
