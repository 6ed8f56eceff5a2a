package httpserver

import (
	"net/http"

	"github.com/rx3lixir/golos/internal/content"
)

func (s *Server) HandleListRecordings(w http.ResponseWriter, r *http.Request) {
	filter, err := listFilter(r)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	recordings, err := s.svc.ListRecordings(r.Context(), filter)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	s.respondData(w, http.StatusOK, recordings)
}

// HandleCreateRecording takes multipart fields title, description and an
// audio file
func (s *Server) HandleCreateRecording(w http.ResponseWriter, r *http.Request) {
	f, err := s.parseForm(w, r)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	defer f.close()

	audio, err := f.upload("audio")
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	title, _ := f.value("title")
	description, _ := f.value("description")

	rec, err := s.svc.CreateRecording(r.Context(), callerID(r), content.RecordingInput{
		Title:       title,
		Description: description,
		Audio:       audio,
	})
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	s.respondData(w, http.StatusCreated, rec)
}

func (s *Server) HandleGetRecording(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "recording")
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	rec, err := s.svc.GetRecording(r.Context(), id)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	s.respondData(w, http.StatusOK, rec)
}

func (s *Server) HandleUpdateRecording(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "recording")
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	var req UpdateRecordingRequest
	if err := decodeJSON(r, &req); err != nil {
		s.handleError(w, r, err)
		return
	}

	rec, err := s.svc.UpdateRecording(r.Context(), callerID(r), id, content.RecordingPatch{
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	s.respondData(w, http.StatusOK, rec)
}

func (s *Server) HandleDeleteRecording(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "recording")
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	if err := s.svc.DeleteRecording(r.Context(), callerID(r), id); err != nil {
		s.handleError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) HandleRecordingAudio(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "recording")
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	obj, err := s.svc.OpenRecordingAudio(r.Context(), id)
	s.stream(w, r, obj, err)
}

func (s *Server) HandleListRatings(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "recording")
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	ratings, err := s.svc.ListRatings(r.Context(), id)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	s.respondData(w, http.StatusOK, ratings)
}

// HandleRate creates or replaces the caller's rating
func (s *Server) HandleRate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "recording")
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	var req RateRequest
	if err := decodeJSON(r, &req); err != nil {
		s.handleError(w, r, err)
		return
	}

	rating, err := s.svc.Rate(r.Context(), callerID(r), id, req.Rating)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	s.respondData(w, http.StatusOK, rating)
}

func (s *Server) HandleMyRating(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "recording")
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	rating, err := s.svc.MyRating(r.Context(), callerID(r), id)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	s.respondData(w, http.StatusOK, rating)
}

func (s *Server) HandleDeleteRating(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "rating")
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	if err := s.svc.DeleteRating(r.Context(), callerID(r), id); err != nil {
		s.handleError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
