package service

import (
	"context"
	"sync"

	"quoteflow/internal/model"
)

// In-memory doubles for the cache, repo, and external-client seams.

type fakeSessionCache struct {
	mu       sync.Mutex
	sessions map[string]*model.WizardSession
	guards   map[string]bool
	// guardBusy forces AcquireVerification to report an in-flight check
	guardBusy bool
}

func newFakeSessionCache() *fakeSessionCache {
	return &fakeSessionCache{
		sessions: make(map[string]*model.WizardSession),
		guards:   make(map[string]bool),
	}
}

func (c *fakeSessionCache) Set(_ context.Context, session *model.WizardSession) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	copied := *session
	if session.Answers != nil {
		copied.Answers = make(map[string]string, len(session.Answers))
		for k, v := range session.Answers {
			copied.Answers[k] = v
		}
	}
	c.sessions[session.ID] = &copied
	return nil
}

func (c *fakeSessionCache) Get(_ context.Context, id string) (*model.WizardSession, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	stored, ok := c.sessions[id]
	if !ok {
		return nil, nil
	}
	copied := *stored
	if stored.Answers != nil {
		copied.Answers = make(map[string]string, len(stored.Answers))
		for k, v := range stored.Answers {
			copied.Answers[k] = v
		}
	}
	return &copied, nil
}

func (c *fakeSessionCache) Delete(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sessions, id)
	return nil
}

func (c *fakeSessionCache) AcquireVerification(_ context.Context, sessionID string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.guardBusy || c.guards[sessionID] {
		return false, nil
	}
	c.guards[sessionID] = true
	return true, nil
}

func (c *fakeSessionCache) ReleaseVerification(_ context.Context, sessionID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.guards, sessionID)
	return nil
}

type fakeToolCache struct {
	mu    sync.Mutex
	tools map[string]*model.Tool
}

func newFakeToolCache() *fakeToolCache {
	return &fakeToolCache{tools: make(map[string]*model.Tool)}
}

func (c *fakeToolCache) Set(_ context.Context, tool *model.Tool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tools[tool.ID] = tool
	return nil
}

func (c *fakeToolCache) Get(_ context.Context, id string) (*model.Tool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tools[id], nil
}

func (c *fakeToolCache) Delete(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.tools, id)
	return nil
}

type fakeToolRepo struct {
	mu    sync.Mutex
	tools map[string]*model.Tool
}

func newFakeToolRepo() *fakeToolRepo {
	return &fakeToolRepo{tools: make(map[string]*model.Tool)}
}

func (r *fakeToolRepo) Create(_ context.Context, tool *model.Tool) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if tool.ID == "" {
		tool.ID = "tool-1"
	}
	r.tools[tool.ID] = tool
	return tool.ID, nil
}

func (r *fakeToolRepo) GetByID(_ context.Context, id string) (*model.Tool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tools[id], nil
}

func (r *fakeToolRepo) GetByOwnerID(_ context.Context, ownerID string) ([]*model.Tool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Tool
	for _, t := range r.tools {
		if t.OwnerID == ownerID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *fakeToolRepo) Update(_ context.Context, tool *model.Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[tool.ID] = tool
	return nil
}

func (r *fakeToolRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tools, id)
	return nil
}

type fakeSessionRepo struct {
	mu       sync.Mutex
	archived map[string]*model.WizardSession
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{archived: make(map[string]*model.WizardSession)}
}

func (r *fakeSessionRepo) Upsert(_ context.Context, session *model.WizardSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *session
	r.archived[session.ID] = &copied
	return nil
}

func (r *fakeSessionRepo) GetByID(_ context.Context, id string) (*model.WizardSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.archived[id], nil
}

func (r *fakeSessionRepo) ListByTool(_ context.Context, toolID string, _ int64) ([]*model.WizardSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.WizardSession
	for _, s := range r.archived {
		if s.ToolID == toolID {
			out = append(out, s)
		}
	}
	return out, nil
}

type fakeLeadRepo struct {
	mu    sync.Mutex
	leads []*model.OutOfServiceLead
}

func (r *fakeLeadRepo) Create(_ context.Context, lead *model.OutOfServiceLead) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leads = append(r.leads, lead)
	return nil
}

func (r *fakeLeadRepo) ListByTool(_ context.Context, toolID string, _ int64) ([]*model.OutOfServiceLead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.OutOfServiceLead
	for _, l := range r.leads {
		if l.ToolID == toolID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *fakeLeadRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.leads)
}

type fakeGeocoder struct {
	result *GeocodeResult
	err    error
	calls  int
}

func (g *fakeGeocoder) Geocode(_ context.Context, _ string) (*GeocodeResult, error) {
	g.calls++
	return g.result, g.err
}

type fakeAreaChecker struct {
	mu        sync.Mutex
	inService bool
	err       error
	calls     int
}

func (a *fakeAreaChecker) Check(_ context.Context, _, _ float64, _ string) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls++
	return a.inService, a.err
}

func (a *fakeAreaChecker) callCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls
}

type fakeContactAPI struct {
	mu         sync.Mutex
	nextID     string
	err        error
	upserts    []model.ContactFields
	upsertIDs  []string
	getFields  *model.ContactFields
	getErr     error
	// gate, when set, blocks CreateOrUpdate until closed (simulates an
	// upsert still in flight)
	gate chan struct{}
	// done receives after each CreateOrUpdate completes
	done chan struct{}
}

func (c *fakeContactAPI) CreateOrUpdate(_ context.Context, fields model.ContactFields, contactID string) (string, error) {
	if c.gate != nil {
		<-c.gate
	}
	c.mu.Lock()
	c.upserts = append(c.upserts, fields)
	c.upsertIDs = append(c.upsertIDs, contactID)
	id, err := c.nextID, c.err
	c.mu.Unlock()
	if c.done != nil {
		c.done <- struct{}{}
	}
	if err != nil {
		return "", err
	}
	if contactID != "" {
		return contactID, nil
	}
	return id, nil
}

func (c *fakeContactAPI) Get(_ context.Context, _ string) (*model.ContactFields, error) {
	return c.getFields, c.getErr
}

func (c *fakeContactAPI) upsertCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.upserts)
}

type fakeQuoteAPI struct {
	mu      sync.Mutex
	result  *model.QuoteResult
	err     error
	calls   int
	lastCID string
}

func (q *fakeQuoteAPI) Submit(_ context.Context, _ map[string]string, contactID, _ string, _ map[string]string) (*model.QuoteResult, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.calls++
	q.lastCID = contactID
	return q.result, q.err
}
