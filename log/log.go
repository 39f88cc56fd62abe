package log

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"
)

var (
	log       *DailyFile
	errorsLog *DailyFile
	httpLog   *DailyFile

	// if true, Verbosef() will log messages
	Verbose bool

	mu sync.Mutex
)

// DailyFile appends to a file named after the current UTC day i.e. dir/2006-01-02.txt
type DailyFile struct {
	Dir string

	day  int // YYYYMMDD
	file *os.File
	mu   sync.Mutex
}

func NewDailyFile(dir string) *DailyFile {
	return &DailyFile{
		Dir: dir,
	}
}

func dayFromTime(t time.Time) int {
	return t.Year()*10000 + int(t.Month())*100 + t.Day()
}

func (w *DailyFile) reopenIfNeeded(now time.Time) error {
	today := dayFromTime(now)
	if w.file != nil && w.day == today {
		return nil
	}
	if w.file != nil {
		_ = w.file.Close()
		w.file = nil
	}
	if err := os.MkdirAll(w.Dir, 0755); err != nil {
		return err
	}
	path := filepath.Join(w.Dir, now.Format("2006-01-02")+".txt")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	w.file = f
	w.day = today
	return nil
}

// Write writes data to today's file
// it's safe to call on nil receiver
func (w *DailyFile) Write(d []byte) error {
	if w == nil {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.reopenIfNeeded(time.Now().UTC()); err != nil {
		return err
	}
	_, err := w.file.Write(d)
	return err
}

// Close syncs and closes current file
// it's safe to call on nil receiver
func (w *DailyFile) Close() error {
	if w == nil {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}
	_ = w.file.Sync()
	err := w.file.Close()
	w.file = nil
	w.day = 0
	return err
}

type Config struct {
	// directory where log files are stored
	// each log type (regular, errors, http) has its own subdirectory
	// if empty, we only log to stdout
	Dir string
}

// Init initializes the logging system
func Init(config *Config) {
	mu.Lock()
	defer mu.Unlock()
	closeAll()
	if config == nil || config.Dir == "" {
		return
	}
	dir := config.Dir
	log = NewDailyFile(filepath.Join(dir, "log"))
	errorsLog = NewDailyFile(filepath.Join(dir, "errors"))
	// files are created lazily so if app doesn't log
	// http requests, there's no http directory
	httpLog = NewDailyFile(filepath.Join(dir, "http"))
}

func closeAll() {
	for _, wd := range []**DailyFile{&log, &errorsLog, &httpLog} {
		_ = (*wd).Close()
		*wd = nil
	}
}

func Close() {
	mu.Lock()
	defer mu.Unlock()
	closeAll()
}

func Logf(s string, args ...any) {
	if len(args) > 0 {
		s = fmt.Sprintf(s, args...)
	}
	fmt.Print(s)
	_ = log.Write([]byte(s))
}

func Verbosef(format string, args ...any) {
	if !Verbose {
		return
	}
	Logf(format, args...)
}

func GetCallstack(skip int) string {
	var callers [32]uintptr
	n := runtime.Callers(skip+2, callers[:])
	frames := runtime.CallersFrames(callers[:n])
	var cs []string
	for {
		frame, more := frames.Next()
		cs = append(cs, frame.File+":"+strconv.Itoa(frame.Line))
		if !more {
			break
		}
	}
	return strings.Join(cs, "\n")
}

// Errorf logs an error message along with the callstack
// to both regular and errors log
func Errorf(s string, args ...any) {
	if len(args) > 0 {
		s = fmt.Sprintf(s, args...)
	}
	if !strings.HasSuffix(s, "\n") {
		s += "\n"
	}
	s = s + GetCallstack(1) + "\n"
	Logf("%s", s)
	_ = errorsLog.Write([]byte(s))
}

// if err != nil, log and return true
// IfErrf(err) => logs err.Error()
// IfErrf(err, "journal failed: %v", err) => logs message formatted
func IfErrf(err error, a ...any) bool {
	if err == nil {
		return false
	}
	if len(a) == 0 {
		Errorf("%s", err.Error())
		return true
	}
	s, ok := a[0].(string)
	if !ok {
		s = fmt.Sprintf("%s", a[0])
	}
	if len(a) > 1 {
		s = fmt.Sprintf(s, a[1:]...)
	}
	Errorf("%s", s)
	return true
}

func pickFirst(s string) string {
	parts := strings.Split(s, ",")
	return strings.TrimSpace(parts[0])
}

// BestRemoteAddress picks the most accurate IP address from client request
// needed because of proxies
func BestRemoteAddress(r *http.Request) string {
	h := r.Header
	for _, hdr := range []string{"CF-Connecting-IP", "X-Real-Ip", "X-Forwarded-For"} {
		if val := h.Get(hdr); val != "" {
			return pickFirst(val)
		}
	}
	return pickFirst(r.RemoteAddr)
}

// HTTPRequest logs a served request as a JSON line in http log
func HTTPRequest(r *http.Request, code int, nWritten int64, dur time.Duration) error {
	rawQuery := r.URL.RawQuery
	if len(rawQuery) > 128 {
		rawQuery = rawQuery[:128]
	}
	entry := map[string]any{
		"ts":     time.Now().UTC().Unix(),
		"method": r.Method,
		"url":    r.URL.Path,
		"query":  rawQuery,
		"ip":     BestRemoteAddress(r),
		"code":   code,
		"size":   nWritten,
		"dur":    float64(dur.Microseconds()) / 1000.0, // milliseconds with decimal precision
	}
	if ua := r.Header.Get("User-Agent"); ua != "" {
		entry["ua"] = ua
	}
	d, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	d = append(d, '\n')
	Verbosef("%s %s %d %s\n", r.Method, r.URL.Path, code, dur)
	return httpLog.Write(d)
}
