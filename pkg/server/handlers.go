package server

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jakechorley/volunteer-portal/pkg/core/achievements"
	"github.com/jakechorley/volunteer-portal/pkg/core/services"
)

type rejectRequest struct {
	Confirmed bool `json:"confirmed"`
}

type ratingRequest struct {
	Rating int `json:"rating"`
}

type feedbackRequest struct {
	Description string `json:"description"`
}

// answerPrompter answers the reject confirmation with what the client sent
type answerPrompter bool

func (a answerPrompter) Confirm(ctx context.Context, message string) (bool, error) {
	return bool(a), nil
}

func (s *Server) getAchievements(c *gin.Context) {
	employeeID := c.Param("employeeId")
	refresh, _ := strconv.ParseBool(c.Query("refresh"))

	loaded, err := s.board(c.Request.Context(), portalOf(c), employeeID, refresh)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, newAchievementsView(loaded, s.now()))
}

func (s *Server) confirm(c *gin.Context) {
	s.withRecord(c, func(loaded *services.AchievementsResult, volunteerID int) error {
		return services.ConfirmParticipation(c.Request.Context(), portalOf(c), loaded.Board, s.opts.Guard, s.logger, volunteerID)
	})
}

func (s *Server) reject(c *gin.Context) {
	var req rejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	s.withRecord(c, func(loaded *services.AchievementsResult, volunteerID int) error {
		return services.RejectParticipation(c.Request.Context(), portalOf(c), loaded.Board, s.opts.Guard,
			answerPrompter(req.Confirmed), s.logger, volunteerID)
	})
}

func (s *Server) rate(c *gin.Context) {
	var req ratingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	s.withRecord(c, func(loaded *services.AchievementsResult, volunteerID int) error {
		return services.RateEvent(c.Request.Context(), portalOf(c), loaded.Board, s.opts.Guard, s.logger, volunteerID, req.Rating)
	})
}

func (s *Server) feedback(c *gin.Context) {
	var req feedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	s.withRecord(c, func(loaded *services.AchievementsResult, volunteerID int) error {
		_, err := services.SubmitFeedback(c.Request.Context(), portalOf(c), loaded, s.opts.Guard, s.logger, volunteerID, req.Description)
		return err
	})
}

func (s *Server) certificate(c *gin.Context) {
	volunteerID, err := strconv.Atoi(c.Param("volunteerId"))
	if err != nil || volunteerID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid volunteer id"})
		return
	}

	// Certificates are only served for the caller's own records
	loaded, err := s.board(c.Request.Context(), portalOf(c), callerOf(c).EmployeeID, false)
	if err != nil {
		s.writeError(c, err)
		return
	}
	if _, ok := loaded.Board.Record(volunteerID); !ok {
		s.writeError(c, achievements.ErrUnknownVolunteer)
		return
	}

	file, err := services.FetchCertificate(c.Request.Context(), portalOf(c), s.logger, volunteerID)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Name))
	c.Data(http.StatusOK, file.ContentType, file.Content)
}

// withRecord resolves the employee's board and volunteer id, runs the
// mutation and responds with the updated record
func (s *Server) withRecord(c *gin.Context, mutate func(loaded *services.AchievementsResult, volunteerID int) error) {
	volunteerID, err := strconv.Atoi(c.Param("volunteerId"))
	if err != nil || volunteerID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid volunteer id"})
		return
	}

	loaded, err := s.board(c.Request.Context(), portalOf(c), c.Param("employeeId"), false)
	if err != nil {
		s.writeError(c, err)
		return
	}

	if err := mutate(loaded, volunteerID); err != nil {
		s.writeError(c, err)
		return
	}

	view, err := newRecordView(loaded, volunteerID, s.now())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (s *Server) writeError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Warn("Request failed", zap.String("path", c.FullPath()), zap.Int("status", status), zap.Error(err))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
