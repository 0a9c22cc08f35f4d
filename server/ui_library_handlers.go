package server

import (
	"net/http"

	"github.com/jrsteele09/go-book-library/internal/errors"
	"github.com/jrsteele09/go-book-library/internal/utils"
	"github.com/jrsteele09/go-book-library/library"
	"github.com/rs/zerolog/log"
)

// LibraryPageData is the model of the library page
type LibraryPageData struct {
	AppName      string
	Email        string
	EmptyMessage string
	library.State
}

// LibraryPageHandler renders the signed-in user's library (GET /)
func (s *Server) LibraryPageHandler() (http.HandlerFunc, error) {
	tmpl, err := ParseTemplate("library.html")
	if err != nil {
		return nil, err
	}

	return func(w http.ResponseWriter, r *http.Request) {
		vm, ok := s.viewModel(w, r)
		if !ok {
			return
		}
		state, err := vm.Snapshot(r.Context())
		if err != nil {
			log.Err(err).Msg("failed to read library state")
			http.Error(w, "Failed to render library page", http.StatusServiceUnavailable)
			return
		}

		data := LibraryPageData{
			AppName:      s.config.GetAppName(),
			EmptyMessage: library.MsgEmptyLibrary,
			State:        state,
		}
		if session, ok := SessionFromContext(r.Context()); ok {
			data.Email = session.Email
		}

		w.Header().Set("Content-Type", contentTypeHTML)
		w.Header().Set("Cache-Control", "no-store")
		if err := tmpl.Execute(w, data); err != nil {
			log.Err(err).Msg("Failed to render library template")
		}
	}, nil
}

// AddBookHandler submits the new-book form (POST /books)
func (s *Server) AddBookHandler() http.HandlerFunc {
	return s.libraryAction(func(r *http.Request, vm *library.ViewModel) error {
		draft, err := parseDraft(r)
		if err != nil {
			_ = vm.SetDraft(r.Context(), draft)
			return vm.Notify(r.Context(), library.ErrorNotice(library.MsgInvalidYear))
		}
		return vm.SubmitAdd(r.Context(), draft)
	})
}

// BeginEditHandler selects a book for editing (POST /books/{id}/edit)
func (s *Server) BeginEditHandler() http.HandlerFunc {
	return s.libraryAction(func(r *http.Request, vm *library.ViewModel) error {
		return vm.BeginEdit(r.Context(), r.PathValue("id"))
	})
}

// SubmitEditHandler saves the book under edit (POST /books/edit)
func (s *Server) SubmitEditHandler() http.HandlerFunc {
	return s.libraryAction(func(r *http.Request, vm *library.ViewModel) error {
		fields, err := parseDraft(r)
		if err != nil {
			_ = vm.SetEdit(r.Context(), fields)
			return vm.Notify(r.Context(), library.ErrorNotice(library.MsgInvalidYear))
		}
		return vm.SubmitEdit(r.Context(), fields)
	})
}

// CancelEditHandler drops the edit selection (POST /books/edit/cancel)
func (s *Server) CancelEditHandler() http.HandlerFunc {
	return s.libraryAction(func(r *http.Request, vm *library.ViewModel) error {
		return vm.CancelEdit(r.Context())
	})
}

// DeleteBookHandler removes a book without confirmation (POST /books/{id}/delete)
func (s *Server) DeleteBookHandler() http.HandlerFunc {
	return s.libraryAction(func(r *http.Request, vm *library.ViewModel) error {
		return vm.DeleteRecord(r.Context(), r.PathValue("id"))
	})
}

// libraryAction runs one user action against the session's view-model and
// redirects back to the library page. Outcomes reach the user as notices.
func (s *Server) libraryAction(action func(r *http.Request, vm *library.ViewModel) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}
		vm, ok := s.viewModel(w, r)
		if !ok {
			return
		}

		if err := action(r, vm); err != nil {
			switch {
			case errors.Is(err, errors.ErrValidation), errors.Is(err, errors.ErrNotFound):
				log.Debug().Err(err).Str("path", r.URL.Path).Msg("library action rejected")
			default:
				log.Err(err).Str("path", r.URL.Path).Msg("library action failed")
			}
		}
		redirectSuccess(w, r, RouteHome)
	}
}

// viewModel fetches the view-model of the request's session. A failed
// initial load still yields a view-model carrying the failure notice.
func (s *Server) viewModel(w http.ResponseWriter, r *http.Request) (*library.ViewModel, bool) {
	session, ok := SessionFromContext(r.Context())
	if !ok {
		redirectSuccess(w, r, RouteLogin)
		return nil, false
	}
	vm, err := s.library.Get(r.Context(), *session)
	if err != nil {
		log.Err(err).Str("session_id", session.ID).Msg("failed to load library")
	}
	return vm, vm != nil
}

// parseDraft reads the book form. An unparseable year is dropped from the
// returned draft and reported as an error.
func parseDraft(r *http.Request) (library.Draft, error) {
	draft := library.Draft{
		Title:  r.FormValue("title"),
		Author: r.FormValue("author"),
	}
	year, err := utils.ParseOptionalInt(r.FormValue("year"))
	if err != nil {
		return draft, errors.Wrapf(errors.ErrInvalidYear, "%s", err.Error())
	}
	draft.Year = year
	return draft, nil
}
