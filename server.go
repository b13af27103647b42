package govgram

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"
)

// Request is one incoming IPC message. _Op_ selects the operation:
// "extract" returns the v-grams of Text, "estimate" the selectivity of
// Pattern, "query" the candidate documents for Pattern, "index" posts Text
// under DocID, "stats" describes the loaded table, "ping" checks liveness.
type Request struct {
	ID      string `msgpack:"id"`
	Op      string `msgpack:"op"`
	Text    string `msgpack:"x,omitempty"`
	Pattern string `msgpack:"p,omitempty"`
	DocID   string `msgpack:"d,omitempty"`
}

// ExtractResponse answers an "extract" request.
type ExtractResponse struct {
	ID        string   `msgpack:"id"`
	VGrams    []string `msgpack:"v"`
	Count     int      `msgpack:"c"`
	TimeTaken int64    `msgpack:"t"`
}

// EstimateResponse answers an "estimate" request.
type EstimateResponse struct {
	ID          string  `msgpack:"id"`
	Selectivity float64 `msgpack:"s"`
	TimeTaken   int64   `msgpack:"t"`
}

// QueryResponse answers a "query" request. Recheck reports whether the
// candidates must be verified against the actual documents.
type QueryResponse struct {
	ID        string   `msgpack:"id"`
	DocIDs    []string `msgpack:"ids"`
	Count     int      `msgpack:"c"`
	Recheck   bool     `msgpack:"rc"`
	TimeTaken int64    `msgpack:"t"`
}

// IndexResponse answers an "index" request.
type IndexResponse struct {
	ID     string `msgpack:"id"`
	Status string `msgpack:"status"`
}

// StatsResponse answers a "stats" request with the shape of the loaded
// statistics and index.
type StatsResponse struct {
	ID      string  `msgpack:"id"`
	Entries int     `msgpack:"e"`
	MinQ    int     `msgpack:"mnq"`
	MaxQ    int     `msgpack:"mxq"`
	MinFreq float32 `msgpack:"mnf"`
	MaxFreq float32 `msgpack:"mxf"`
	Rows    uint64  `msgpack:"r"`
	Docs    int     `msgpack:"docs"`
}

// ErrorResponse reports a failed request.
type ErrorResponse struct {
	ID    string `msgpack:"id"`
	Error string `msgpack:"error"`
	Code  int    `msgpack:"code"`
}

// Server answers msgpack requests over a byte stream, stdin/stdout in the
// shipped binary. Requests are processed synchronously in arrival order.
type Server struct {
	table     *FrequencyTable
	estimator *SelectivityEstimator
	index     *MemIndex
	minQ      int
	maxQ      int
	decoder   *msgpack.Decoder
	encoder   *msgpack.Encoder
}

// NewServer creates a Server over _table_ answering on _reader_/_writer_.
// "extract" uses v-grams of [minQ, maxQ] runes. _index_ may be nil, which
// turns "index" and "query" requests into errors.
func NewServer(table *FrequencyTable, index *MemIndex, minQ, maxQ int, reader io.Reader, writer io.Writer) *Server {
	return &Server{
		table:     table,
		estimator: NewSelectivityEstimator(table),
		index:     index,
		minQ:      minQ,
		maxQ:      maxQ,
		decoder:   msgpack.NewDecoder(reader),
		encoder:   msgpack.NewEncoder(writer),
	}
}

// Start processes requests until the stream ends. Requests that decode but
// cannot be served become ErrorResponses; an undecodable stream ends the
// loop, since msgpack offers no way to resynchronize.
func (s *Server) Start() error {
	log.Debug("Starting server.")
	s.send(map[string]string{"status": "ready"})
	for {
		var request Request
		err := s.decoder.Decode(&request)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			log.Errorf("Decoding request: %v", err)
			s.sendError("", "invalid request", 400)
			return err
		}
		s.handle(request)
	}
}

func (s *Server) handle(request Request) {
	switch request.Op {
	case "extract":
		s.handleExtract(request)
	case "estimate":
		s.handleEstimate(request)
	case "query":
		s.handleQuery(request)
	case "index":
		s.handleIndex(request)
	case "stats":
		s.handleStats(request)
	case "ping":
		s.send(map[string]string{"id": request.ID, "status": "ok"})
	default:
		s.sendError(request.ID, fmt.Sprintf("unknown op: %s", request.Op), 400)
	}
}

func (s *Server) handleExtract(request Request) {
	start := time.Now()
	vgrams, err := ExtractVGrams(request.Text, s.table, s.minQ, s.maxQ)
	if err != nil {
		s.sendError(request.ID, err.Error(), 500)
		return
	}
	s.send(ExtractResponse{
		ID:        request.ID,
		VGrams:    vgrams,
		Count:     len(vgrams),
		TimeTaken: time.Since(start).Microseconds(),
	})
}

func (s *Server) handleEstimate(request Request) {
	start := time.Now()
	selectivity, err := s.estimator.EstimateLike(request.Pattern)
	if err != nil {
		s.sendError(request.ID, err.Error(), 500)
		return
	}
	s.send(EstimateResponse{
		ID:          request.ID,
		Selectivity: selectivity,
		TimeTaken:   time.Since(start).Microseconds(),
	})
}

func (s *Server) handleQuery(request Request) {
	if s.index == nil {
		s.sendError(request.ID, "no index loaded", 400)
		return
	}
	start := time.Now()
	docIDs, recheck, err := s.index.QueryLike(request.Pattern)
	if err != nil {
		s.sendError(request.ID, err.Error(), 500)
		return
	}
	s.send(QueryResponse{
		ID:        request.ID,
		DocIDs:    docIDs,
		Count:     len(docIDs),
		Recheck:   recheck,
		TimeTaken: time.Since(start).Microseconds(),
	})
}

func (s *Server) handleIndex(request Request) {
	if s.index == nil {
		s.sendError(request.ID, "no index loaded", 400)
		return
	}
	if request.DocID == "" {
		s.sendError(request.ID, "missing document id", 400)
		return
	}
	if err := s.index.Add(request.DocID, request.Text); err != nil {
		s.sendError(request.ID, err.Error(), 500)
		return
	}
	s.send(IndexResponse{ID: request.ID, Status: "ok"})
}

func (s *Server) handleStats(request Request) {
	if s.table == nil {
		s.sendError(request.ID, "no statistics loaded", 400)
		return
	}
	response := StatsResponse{
		ID:      request.ID,
		Entries: s.table.Len(),
		MinQ:    s.table.MinQ(),
		MaxQ:    s.table.MaxQ(),
		MinFreq: s.table.MinFrequency(),
		MaxFreq: s.table.MaxFrequency(),
		Rows:    s.table.Rows(),
	}
	if s.index != nil {
		response.Docs = s.index.Len()
	}
	s.send(response)
}

func (s *Server) send(response interface{}) {
	if err := s.encoder.Encode(response); err != nil {
		log.Errorf("Encoding response: %v", err)
	}
}

func (s *Server) sendError(id, message string, code int) {
	s.send(ErrorResponse{ID: id, Error: message, Code: code})
}
