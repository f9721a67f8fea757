package service

import (
	"context"
	"errors"
	"sync"

	"github.com/clientmailer/clientmailer/internal/email"
	"github.com/clientmailer/clientmailer/internal/model"
	"github.com/clientmailer/clientmailer/internal/repository"
	"github.com/clientmailer/clientmailer/internal/sheets"
)

var errBoom = errors.New("boom")

type fakeStore struct {
	mu        sync.Mutex
	templates map[string]*model.EmailTemplate
	createErr error
}

func newFakeStore(tpls ...*model.EmailTemplate) *fakeStore {
	s := &fakeStore{templates: map[string]*model.EmailTemplate{}}
	for _, t := range tpls {
		s.templates[t.ID] = t
	}
	return s
}

func (s *fakeStore) Create(_ context.Context, tpl *model.EmailTemplate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	cp := *tpl
	s.templates[tpl.ID] = &cp
	return nil
}

func (s *fakeStore) FindAll(_ context.Context) ([]*model.EmailTemplate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.EmailTemplate
	for _, t := range s.templates {
		sum := t.Summary()
		out = append(out, &sum)
	}
	return out, nil
}

func (s *fakeStore) FindByID(_ context.Context, id string) (*model.EmailTemplate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.templates[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (s *fakeStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.templates[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.templates, id)
	return nil
}

type write struct {
	Range  string
	Values [][]string
}

// fakeGateway serves a fixed grid. Reads are numbered from 1 so a test can fail a
// specific one.
type fakeGateway struct {
	mu        sync.Mutex
	rows      [][]string
	reads     int
	failReads map[int]bool
	idCells   map[int]string
	writeErrs map[string]error
	writes    []write
}

func newFakeGateway(rows [][]string) *fakeGateway {
	return &fakeGateway{rows: rows, failReads: map[int]bool{}, idCells: map[int]string{}, writeErrs: map[string]error{}}
}

func (g *fakeGateway) SheetName() string { return "Clients" }

func (g *fakeGateway) ReadAll(_ context.Context) ([][]string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.reads++
	if g.failReads[g.reads] {
		return nil, &sheets.UpstreamError{Op: "read all", Err: errBoom}
	}
	return g.rows, nil
}

func (g *fakeGateway) ReadRange(_ context.Context, addr sheets.RangeAddress) ([][]string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if id, ok := g.idCells[addr.StartRow]; ok {
		return [][]string{{id}}, nil
	}
	if addr.StartRow-1 < len(g.rows) && len(g.rows[addr.StartRow-1]) > 0 {
		return [][]string{{g.rows[addr.StartRow-1][0]}}, nil
	}
	return nil, nil
}

func (g *fakeGateway) WriteRange(_ context.Context, addr sheets.RangeAddress, values [][]string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	rng, err := sheets.BuildRange(g.SheetName(), addr)
	if err != nil {
		return err
	}
	if err := g.writeErrs[rng]; err != nil {
		return &sheets.UpstreamError{Op: "write " + rng, Err: err}
	}
	g.writes = append(g.writes, write{Range: rng, Values: values})
	return nil
}

type fakeSender struct {
	mu      sync.Mutex
	batches [][]email.Message
	fail    map[string]bool
	err     error
}

func (s *fakeSender) SendBatch(_ context.Context, msgs []email.Message) ([]email.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches = append(s.batches, msgs)
	if s.err != nil {
		return nil, s.err
	}
	results := make([]email.Result, len(msgs))
	for i, m := range msgs {
		results[i] = email.Result{To: m.To, MessageID: "msg-" + m.To}
		if s.fail[m.To] {
			results[i] = email.Result{To: m.To, Err: errors.New("mailbox unavailable")}
		}
	}
	return results, nil
}
