// Package router holds the route table.
package router

import (
	"log/slog"
	"net/http"

	"github.com/aanand-mishra/student-records-api/internal/http/handlers/home"
	"github.com/aanand-mishra/student-records-api/internal/http/handlers/student"
	"github.com/aanand-mishra/student-records-api/internal/http/middleware"
)

// New returns the application handler.
//
// Route table (each student route is served with and without the trailing
// slash):
//
//	GET    /                      → welcome document
//	POST   /students/             → create a new student
//	GET    /students/             → list all students
//	GET    /students/{roll_no}/   → get one student by roll number
//	PUT    /students/{roll_no}/   → replace a student
//	PATCH  /students/{roll_no}/   → update some fields of a student
//	DELETE /students/{roll_no}/   → delete a student
//
// {$} anchors a pattern so "/students/" does not also match every path
// below it.
func New(gateway student.Gateway, log *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", home.Index(log))

	handle(mux, "POST", "/students", student.New(gateway, log))
	handle(mux, "GET", "/students", student.GetList(gateway, log))
	handle(mux, "GET", "/students/{roll_no}", student.GetByID(gateway, log))
	handle(mux, "PUT", "/students/{roll_no}", student.Update(gateway, log))
	handle(mux, "PATCH", "/students/{roll_no}", student.PartialUpdate(gateway, log))
	handle(mux, "DELETE", "/students/{roll_no}", student.Delete(gateway, log))

	return middleware.Chain(mux,
		middleware.RequestID,
		middleware.Logging(log),
		middleware.Recover(log),
	)
}

func handle(mux *http.ServeMux, method, path string, h http.HandlerFunc) {
	mux.HandleFunc(method+" "+path, h)
	mux.HandleFunc(method+" "+path+"/{$}", h)
}
