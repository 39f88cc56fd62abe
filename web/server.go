// Package web serves an HTML form and a JSON API over a gradestore.Store
package web

import (
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/studentgrades/gradebook/gradestore"
	"github.com/studentgrades/gradebook/log"
	"github.com/tidwall/pretty"
)

type Server struct {
	Store *gradestore.Store
}

func New(store *gradestore.Store) *Server {
	return &Server{Store: store}
}

// Handler returns the http handler with all routes, request logging and panic recovery
func (s *Server) Handler() http.Handler {
	// ids may contain '/', match them in escaped form
	r := mux.NewRouter().UseEncodedPath()

	r.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	r.HandleFunc("/students", s.handleFormAdd).Methods(http.MethodPost)
	r.HandleFunc("/students/update", s.handleFormUpdate).Methods(http.MethodPost)
	r.HandleFunc("/students/delete", s.handleFormDelete).Methods(http.MethodPost)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/students", s.handleAPIList).Methods(http.MethodGet)
	api.HandleFunc("/students", s.handleAPIAdd).Methods(http.MethodPost)
	api.HandleFunc("/students/{id}", s.handleAPIGet).Methods(http.MethodGet)
	api.HandleFunc("/students/{id}", s.handleAPIUpdate).Methods(http.MethodPut)
	api.HandleFunc("/students/{id}", s.handleAPIDelete).Methods(http.MethodDelete)
	api.HandleFunc("/report", s.handleAPIReport).Methods(http.MethodGet)

	var h http.Handler = r
	h = handlers.RecoveryHandler(handlers.PrintRecoveryStack(true))(h)
	return logRequests(h)
}

type capturingResponseWriter struct {
	http.ResponseWriter
	StatusCode int
	Size       int64
}

func (w *capturingResponseWriter) WriteHeader(statusCode int) {
	w.StatusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *capturingResponseWriter) Write(d []byte) (int, error) {
	w.Size += int64(len(d))
	return w.ResponseWriter.Write(d)
}

func logRequests(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		timeStart := time.Now()
		cw := &capturingResponseWriter{ResponseWriter: w, StatusCode: http.StatusOK}
		h.ServeHTTP(cw, r)
		err := log.HTTPRequest(r, cw.StatusCode, cw.Size, time.Since(timeStart))
		log.IfErrf(err)
	})
}

// statusForError maps store errors to http status codes
func statusForError(err error) int {
	switch {
	case errors.Is(err, gradestore.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, gradestore.ErrDuplicateKey):
		return http.StatusConflict
	case errors.Is(err, gradestore.ErrNotFound):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func serveJSON(w http.ResponseWriter, r *http.Request, v any, code int) {
	d, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if r.FormValue("pretty") != "" {
		d = pretty.Pretty(d)
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write(d)
}

type apiError struct {
	Error string `json:"error"`
}

func serveError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusForError(err)
	if code == http.StatusInternalServerError {
		log.Errorf("%s %s failed with '%s'", r.Method, r.URL.Path, err)
	}
	serveJSON(w, r, &apiError{Error: err.Error()}, code)
}

func (s *Server) handleAPIList(w http.ResponseWriter, r *http.Request) {
	recs, err := s.Store.Load()
	if err != nil {
		serveError(w, r, err)
		return
	}
	if recs == nil {
		recs = []*gradestore.StudentRecord{}
	}
	serveJSON(w, r, recs, http.StatusOK)
}

// studentID returns unescaped {id} path variable
func studentID(r *http.Request) (string, error) {
	id, err := url.PathUnescape(mux.Vars(r)["id"])
	if err != nil {
		return "", errors.Join(gradestore.ErrValidation, err)
	}
	return id, nil
}

func (s *Server) handleAPIGet(w http.ResponseWriter, r *http.Request) {
	id, err := studentID(r)
	var rec *gradestore.StudentRecord
	if err == nil {
		rec, err = s.Store.Get(id)
	}
	if err != nil {
		serveError(w, r, err)
		return
	}
	serveJSON(w, r, rec, http.StatusOK)
}

func readJSONRecord(r *http.Request) (*gradestore.StudentRecord, error) {
	var rec gradestore.StudentRecord
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&rec); err != nil {
		return nil, errors.Join(gradestore.ErrValidation, err)
	}
	return rec.TrimSpace(), nil
}

func (s *Server) handleAPIAdd(w http.ResponseWriter, r *http.Request) {
	rec, err := readJSONRecord(r)
	if err == nil {
		err = s.Store.Add(rec)
	}
	if err != nil {
		serveError(w, r, err)
		return
	}
	serveJSON(w, r, rec, http.StatusCreated)
}

func (s *Server) handleAPIUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := studentID(r)
	var rec *gradestore.StudentRecord
	if err == nil {
		rec, err = readJSONRecord(r)
	}
	if err == nil {
		err = s.Store.Update(id, rec)
	}
	if err == nil {
		rec, err = s.Store.Get(id)
	}
	if err != nil {
		serveError(w, r, err)
		return
	}
	serveJSON(w, r, rec, http.StatusOK)
}

func (s *Server) handleAPIDelete(w http.ResponseWriter, r *http.Request) {
	id, err := studentID(r)
	if err == nil {
		err = s.Store.Delete(id)
	}
	if err != nil {
		serveError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAPIReport(w http.ResponseWriter, r *http.Request) {
	rep, err := s.Store.Report()
	if err != nil {
		serveError(w, r, err)
		return
	}
	serveJSON(w, r, rep, http.StatusOK)
}

var indexTmpl = template.Must(template.New("index").Parse(indexHTML))

type indexData struct {
	Columns []string
	Records []*gradestore.StudentRecord
	Form    *gradestore.StudentRecord
	Message string
	IsError bool
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := &indexData{
		Columns: gradestore.Columns,
		Form:    &gradestore.StudentRecord{},
		Message: r.FormValue("msg"),
		IsError: r.FormValue("err") != "",
	}
	recs, err := s.Store.Load()
	if err != nil {
		// show the error and an empty list
		data.Message = "Failed to load data: " + err.Error()
		data.IsError = true
	}
	data.Records = recs
	// clicking on a row fills the form with its values
	if id := r.FormValue("id"); id != "" {
		for _, rec := range recs {
			if rec.ID == id {
				data.Form = rec
				break
			}
		}
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err = indexTmpl.Execute(w, data); err != nil {
		log.Errorf("indexTmpl.Execute() failed with '%s'", err)
	}
}

func formRecord(r *http.Request) *gradestore.StudentRecord {
	rec := &gradestore.StudentRecord{
		ID:          r.FormValue("id"),
		Name:        r.FormValue("name"),
		Mathematics: r.FormValue("mathematics"),
		OS:          r.FormValue("os"),
		DBMS:        r.FormValue("dbms"),
	}
	return rec.TrimSpace()
}

// userMessage returns a message suitable for showing in a form
func userMessage(err error) string {
	switch {
	case errors.Is(err, gradestore.ErrValidation):
		return "All fields are required!"
	case errors.Is(err, gradestore.ErrDuplicateKey):
		return "Student ID already exists!"
	case errors.Is(err, gradestore.ErrNotFound):
		return "Student ID not found!"
	}
	return err.Error()
}

// redirectWithMessage implements post / redirect / get so that
// reloading the page doesn't repeat the action
func redirectWithMessage(w http.ResponseWriter, r *http.Request, err error, okMsg string) {
	v := url.Values{}
	if err != nil {
		v.Set("msg", userMessage(err))
		v.Set("err", "1")
		if statusForError(err) == http.StatusInternalServerError {
			log.Errorf("%s %s failed with '%s'", r.Method, r.URL.Path, err)
		}
	} else {
		v.Set("msg", okMsg)
	}
	http.Redirect(w, r, "/?"+v.Encode(), http.StatusSeeOther)
}

func (s *Server) handleFormAdd(w http.ResponseWriter, r *http.Request) {
	err := s.Store.Add(formRecord(r))
	redirectWithMessage(w, r, err, "Student record added successfully!")
}

func (s *Server) handleFormUpdate(w http.ResponseWriter, r *http.Request) {
	rec := formRecord(r)
	err := s.Store.Update(rec.ID, rec)
	redirectWithMessage(w, r, err, "Student record updated successfully!")
}

func (s *Server) handleFormDelete(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.FormValue("id"))
	if id == "" {
		v := url.Values{"msg": {"Please enter Student ID to delete!"}, "err": {"1"}}
		http.Redirect(w, r, "/?"+v.Encode(), http.StatusSeeOther)
		return
	}
	err := s.Store.Delete(id)
	redirectWithMessage(w, r, err, "Student record deleted successfully!")
}
