package httpserver

import (
	"net/http"

	"github.com/rx3lixir/golos/internal/content"
)

func (s *Server) HandleListComments(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "recording")
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	comments, err := s.svc.ListComments(r.Context(), id)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	s.respondData(w, http.StatusOK, comments)
}

// HandleCreateComment takes multipart text_comment and/or a voice_comment file
func (s *Server) HandleCreateComment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "recording")
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	f, err := s.parseForm(w, r)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	defer f.close()

	voice, err := f.upload("voice_comment")
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	text, _ := f.value("text_comment")

	comment, err := s.svc.CreateComment(r.Context(), callerID(r), id, content.CommentInput{
		Text:  text,
		Voice: voice,
	})
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	s.respondData(w, http.StatusCreated, comment)
}

func (s *Server) HandleGetComment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "comment")
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	comment, err := s.svc.GetComment(r.Context(), id)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	s.respondData(w, http.StatusOK, comment)
}

func (s *Server) HandleUpdateComment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "comment")
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	f, err := s.parseForm(w, r)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	defer f.close()

	voice, err := f.upload("voice_comment")
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	removeVoice, err := f.flag("remove_voice")
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	comment, err := s.svc.UpdateComment(r.Context(), callerID(r), id, content.CommentPatch{
		Text:        f.optional("text_comment"),
		Voice:       voice,
		RemoveVoice: removeVoice,
	})
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	s.respondData(w, http.StatusOK, comment)
}

func (s *Server) HandleDeleteComment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "comment")
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	if err := s.svc.DeleteComment(r.Context(), callerID(r), id); err != nil {
		s.handleError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) HandleCommentVoice(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "comment")
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	obj, err := s.svc.OpenCommentVoice(r.Context(), id)
	s.stream(w, r, obj, err)
}
