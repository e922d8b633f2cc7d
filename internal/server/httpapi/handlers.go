package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/dmitrijs2005/alert/internal/common"
	"github.com/dmitrijs2005/alert/internal/server/models"
	"github.com/gorilla/mux"
)

const maxBodyBytes = 1 << 20

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type passwordRequest struct {
	Password string `json:"password"`
}

type checkUsernameResponse struct {
	Username  string `json:"username"`
	Available bool   `json:"available"`
}

type healthResponse struct {
	Status string `json:"status"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.db.PingContext(ctx); err != nil {
		s.logger.Warn(r.Context(), "health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	u, err := s.users.Register(r.Context(), req.Username, []byte(req.Password))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	status, err := models.ParseStatus(q.Get("status"))
	if err != nil {
		s.fail(w, r, fmt.Errorf("%w: %v", common.ErrorValidation, err))
		return
	}
	limit, err := queryInt(q.Get("limit"))
	if err != nil {
		s.fail(w, r, fmt.Errorf("%w: limit: %v", common.ErrorValidation, err))
		return
	}
	offset, err := queryInt(q.Get("offset"))
	if err != nil {
		s.fail(w, r, fmt.Errorf("%w: offset: %v", common.ErrorValidation, err))
		return
	}

	list, err := s.users.List(r.Context(), models.ListFilter{Status: status, Limit: limit, Offset: offset})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if list == nil {
		list = []*models.User{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) checkUsername(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")

	ok, err := s.users.CheckUsername(r.Context(), username)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, checkUsernameResponse{Username: username, Available: ok})
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	u, err := s.users.FindByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) getByUsername(w http.ResponseWriter, r *http.Request) {
	u, err := s.users.FindByUsername(r.Context(), mux.Vars(r)["username"])
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) resetPassword(w http.ResponseWriter, r *http.Request) {
	var req passwordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	u, err := s.users.ResetPassword(r.Context(), mux.Vars(r)["id"], []byte(req.Password))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) archive(w http.ResponseWriter, r *http.Request) {
	u, err := s.users.Archive(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid request body: %v", common.ErrorValidation, err)
	}
	return nil
}

func queryInt(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("must not be negative")
	}
	return n, nil
}
