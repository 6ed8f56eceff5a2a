package httpserver

import (
	"net/http"

	"github.com/rx3lixir/golos/internal/content"
)

func (s *Server) HandleListQuestions(w http.ResponseWriter, r *http.Request) {
	filter, err := listFilter(r)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	questions, err := s.svc.ListQuestions(r.Context(), filter)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	s.respondData(w, http.StatusOK, questions)
}

// HandleCreateQuestion takes multipart title, text_question and/or a
// voice_question file
func (s *Server) HandleCreateQuestion(w http.ResponseWriter, r *http.Request) {
	f, err := s.parseForm(w, r)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	defer f.close()

	voice, err := f.upload("voice_question")
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	title, _ := f.value("title")
	text, _ := f.value("text_question")

	q, err := s.svc.CreateQuestion(r.Context(), callerID(r), content.QuestionInput{
		Title: title,
		Text:  text,
		Voice: voice,
	})
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	s.respondData(w, http.StatusCreated, q)
}

func (s *Server) HandleGetQuestion(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "question")
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	q, err := s.svc.GetQuestion(r.Context(), id)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	s.respondData(w, http.StatusOK, q)
}

func (s *Server) HandleUpdateQuestion(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "question")
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

	voice, err := f.upload("voice_question")
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	removeVoice, err := f.flag("remove_voice")
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	q, err := s.svc.UpdateQuestion(r.Context(), callerID(r), id, content.QuestionPatch{
		Title:       f.optional("title"),
		Text:        f.optional("text_question"),
		Voice:       voice,
		RemoveVoice: removeVoice,
	})
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	s.respondData(w, http.StatusOK, q)
}

func (s *Server) HandleDeleteQuestion(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "question")
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	if err := s.svc.DeleteQuestion(r.Context(), callerID(r), id); err != nil {
		s.handleError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) HandleQuestionVoice(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "question")
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	obj, err := s.svc.OpenQuestionVoice(r.Context(), id)
	s.stream(w, r, obj, err)
}

func (s *Server) HandleListAnswers(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "question")
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	answers, err := s.svc.ListAnswers(r.Context(), id)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	s.respondData(w, http.StatusOK, answers)
}

// HandleCreateAnswer takes multipart text_answer and/or a voice_answer file
func (s *Server) HandleCreateAnswer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "question")
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

	voice, err := f.upload("voice_answer")
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	text, _ := f.value("text_answer")

	a, err := s.svc.CreateAnswer(r.Context(), callerID(r), id, content.AnswerInput{
		Text:  text,
		Voice: voice,
	})
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	s.respondData(w, http.StatusCreated, a)
}

func (s *Server) HandleGetAnswer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "answer")
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	a, err := s.svc.GetAnswer(r.Context(), id)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	s.respondData(w, http.StatusOK, a)
}

func (s *Server) HandleUpdateAnswer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "answer")
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

	voice, err := f.upload("voice_answer")
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	removeVoice, err := f.flag("remove_voice")
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	a, err := s.svc.UpdateAnswer(r.Context(), callerID(r), id, content.AnswerPatch{
		Text:        f.optional("text_answer"),
		Voice:       voice,
		RemoveVoice: removeVoice,
	})
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	s.respondData(w, http.StatusOK, a)
}

func (s *Server) HandleDeleteAnswer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "answer")
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	if err := s.svc.DeleteAnswer(r.Context(), callerID(r), id); err != nil {
		s.handleError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) HandleAnswerVoice(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "answer")
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	obj, err := s.svc.OpenAnswerVoice(r.Context(), id)
	s.stream(w, r, obj, err)
}
