package host

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"actionlog/internal/document"

	"github.com/gin-gonic/gin"
)

// errNotAvailable mirrors the host's "object is not currently available" code.
const errNotAvailable = -25920

// Simulator is a stand-in host for local runs and tests. It keeps a set of
// named resources (layers, documents, ...) and understands three kinds of
// command:
//
//   - "make" with a "name" creates a resource
//   - "delete" removes the resource named by the first _target
//   - anything else succeeds only when its _target, if any, exists
type Simulator struct {
	mu        sync.Mutex
	resources map[string]int
	nextID    int
	logger    *slog.Logger
	engine    *gin.Engine
}

func NewSimulator(logger *slog.Logger, names ...string) *Simulator {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Simulator{
		resources: make(map[string]int),
		nextID:    1,
		logger:    logger,
	}
	for _, n := range names {
		s.resources[n] = s.nextID
		s.nextID++
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(logger))
	r.POST("/execute", s.handleExecute)
	r.POST("/exists", s.handleExists)
	r.GET("/resources", s.handleResources)
	s.engine = r
	return s
}

func (s *Simulator) Handler() http.Handler { return s.engine }

// Resources lists the current resource names, sorted.
func (s *Simulator) Resources() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.resources))
	for n := range s.resources {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Run serves until ctx is cancelled.
func (s *Simulator) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("host simulator listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Simulator) handleExecute(c *gin.Context) {
	var req executeRequest
	if !readJSON(c, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	results := make([]document.Value, 0, len(req.Commands))
	for _, cmd := range req.Commands {
		res, errDoc := s.apply(cmd)
		if !errDoc.IsNull() {
			writeJSON(c, http.StatusBadRequest, executeResponse{Error: errDoc})
			return
		}
		results = append(results, res)
	}
	writeJSON(c, http.StatusOK, executeResponse{Results: results})
}

func (s *Simulator) handleExists(c *gin.Context) {
	var req existsRequest
	if !readJSON(c, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	exists := true
	if name, ok := targetName(req.Descriptor); ok {
		_, exists = s.resources[name]
	}
	writeJSON(c, http.StatusOK, existsResponse{Exists: exists})
}

func (s *Simulator) handleResources(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"resources": s.Resources()})
}

// apply runs one command with s.mu held.
func (s *Simulator) apply(cmd document.Value) (document.Value, document.Value) {
	objVal, _ := cmd.Get("_obj")
	obj, ok := objVal.AsString()
	if !ok {
		return document.Value{}, hostError(-1, "command has no _obj")
	}

	switch obj {
	case "make":
		nameVal, _ := cmd.Get("name")
		name, ok := nameVal.AsString()
		if !ok || name == "" {
			return document.Value{}, hostError(-1, "make requires a name")
		}
		id, exists := s.resources[name]
		if !exists {
			id = s.nextID
			s.nextID++
			s.resources[name] = id
		}
		return document.Object(
			document.M("_obj", document.String("make")),
			document.M("name", document.String(name)),
			document.M("ID", document.Number(float64(id))),
		), document.Value{}
	}

	name, hasTarget := targetName(cmd)
	if hasTarget {
		id, exists := s.resources[name]
		if !exists {
			return document.Value{}, hostError(errNotAvailable, fmt.Sprintf("The object %q is not currently available.", name))
		}
		if obj == "delete" {
			delete(s.resources, name)
		}
		return document.Object(
			document.M("_obj", document.String(obj)),
			document.M("ID", document.Number(float64(id))),
		), document.Value{}
	}
	return document.Object(document.M("_obj", document.String(obj))), document.Value{}
}

// targetName returns the _name of the first _target reference.
func targetName(cmd document.Value) (string, bool) {
	target, ok := cmd.Get("_target")
	if !ok {
		return "", false
	}
	ref := target
	if target.Kind() == document.KindArray {
		items := target.Items()
		if len(items) == 0 {
			return "", false
		}
		ref = items[0]
	}
	nameVal, ok := ref.Get("_name")
	if !ok {
		return "", false
	}
	return nameVal.AsString()
}

func hostError(number int, message string) document.Value {
	return document.Object(
		document.M("number", document.Number(float64(number))),
		document.M("message", document.String(message)),
	)
}

func readJSON(c *gin.Context, out any) bool {
	data, err := c.GetRawData()
	if err == nil {
		err = json.Unmarshal(data, out)
	}
	if err != nil {
		writeJSON(c, http.StatusBadRequest, executeResponse{Error: hostError(-1, err.Error())})
		return false
	}
	return true
}

func writeJSON(c *gin.Context, status int, body any) {
	data, err := json.Marshal(body)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(status, "application/json", data)
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		logger.Debug("host request",
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"request_id", c.GetHeader("X-Request-ID"),
			"latency", time.Since(start),
		)
	}
}
