package fixtures

import (
	"fmt"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/bytedance/sonic"
)

// MessageEntry is a message as the channel messages endpoint returns it
type MessageEntry struct {
	Id        string     `json:"id"`
	Type      int        `json:"type"`
	Content   string     `json:"content"`
	Timestamp string     `json:"timestamp"`
	Author    Author     `json:"author"`
	Call      *CallEntry `json:"call,omitempty"`
}

type Author struct {
	Id       string `json:"id"`
	Username string `json:"username"`
}

// CallEntry is the call object attached to call messages. A nil
// EndedTimestamp encodes as null, the shape of a call still in progress.
type CallEntry struct {
	Participants   []string `json:"participants"`
	EndedTimestamp *string  `json:"ended_timestamp"`
}

// HistoryGenerator builds channel histories with ids 1..n, one message per
// Spacing starting at Start.
type HistoryGenerator struct {
	Start   time.Time
	Spacing time.Duration
	// CallEvery marks every CallEvery-th id as a concluded call.
	CallEvery int
	// CallLength gives the duration of the call at id.
	CallLength func(id int) time.Duration
}

// NewHistoryGenerator returns a generator of hourly messages where every
// 50th message is a call lasting (id mod 4 + 1) * 15 minutes.
func NewHistoryGenerator() *HistoryGenerator {
	return &HistoryGenerator{
		Start:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Spacing:   time.Hour,
		CallEvery: 50,
		CallLength: func(id int) time.Duration {
			return time.Duration(id%4+1) * 15 * time.Minute
		},
	}
}

// Generate returns total messages, newest first.
func (g *HistoryGenerator) Generate(total int) []MessageEntry {
	entries := make([]MessageEntry, 0, total)
	for id := total; id >= 1; id-- {
		sent := g.Start.Add(time.Duration(id) * g.Spacing)
		entry := MessageEntry{
			Id:        strconv.Itoa(id),
			Content:   fmt.Sprintf("message %d", id),
			Timestamp: sent.Format(time.RFC3339),
			Author:    Author{Id: "1000", Username: "tester"},
		}
		if g.CallEvery > 0 && id%g.CallEvery == 0 {
			ended := sent.Add(g.CallLength(id)).Format(time.RFC3339)
			entry.Type = 3
			entry.Content = ""
			entry.Call = &CallEntry{Participants: []string{"1000"}, EndedTimestamp: &ended}
		}
		entries = append(entries, entry)
	}
	return entries
}

// TotalCallTime sums the call durations Generate(total) produces.
func (g *HistoryGenerator) TotalCallTime(total int) (count int, sum time.Duration) {
	if g.CallEvery <= 0 {
		return 0, 0
	}
	for id := g.CallEvery; id <= total; id += g.CallEvery {
		count++
		sum += g.CallLength(id)
	}
	return count, sum
}

// ChannelServer serves a fixed history through the paginated messages
// endpoint: newest first, honoring "before" and "limit".
type ChannelServer struct {
	Entries []MessageEntry
	// FailStatus, when set, answers every request with FailBody.
	FailStatus int
	FailBody   string

	requests  int32
	lastToken atomic.Value
}

func NewChannelServer(entries []MessageEntry) *ChannelServer {
	return &ChannelServer{Entries: entries}
}

// Requests reports how many requests were served.
func (s *ChannelServer) Requests() int {
	return int(atomic.LoadInt32(&s.requests))
}

// LastToken returns the authorization header of the latest request.
func (s *ChannelServer) LastToken() string {
	token, _ := s.lastToken.Load().(string)
	return token
}

func (s *ChannelServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&s.requests, 1)
	s.lastToken.Store(r.Header.Get("authorization"))
	w.Header().Set("Content-Type", "application/json")

	if s.FailStatus != 0 {
		w.WriteHeader(s.FailStatus)
		fmt.Fprint(w, s.FailBody)
		return
	}

	limit := 50
	if value := r.URL.Query().Get("limit"); value != "" {
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 || n > 100 {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"message": "Invalid Form Body", "code": 50035}`)
			return
		}
		limit = n
	}

	var before uint64
	if value := r.URL.Query().Get("before"); value != "" {
		n, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"message": "Invalid Form Body", "code": 50035}`)
			return
		}
		before = n
	}

	page := make([]MessageEntry, 0, limit)
	for _, entry := range s.Entries {
		if len(page) == limit {
			break
		}
		id, _ := strconv.ParseUint(entry.Id, 10, 64)
		if before != 0 && id >= before {
			continue
		}
		page = append(page, entry)
	}

	data, err := sonic.Marshal(page)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Write(data)
}
