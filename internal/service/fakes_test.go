package service

import (
	"context"
	"sort"
	"sync"

	"github.com/lshigami/tutorlab/internal/apperror"
	"github.com/lshigami/tutorlab/internal/model"
	"github.com/lshigami/tutorlab/internal/repository"
)

type fakeQuestionRepo struct {
	questions []model.Question
}

func (r *fakeQuestionRepo) Create(_ context.Context, q *model.Question) error {
	q.ID = uint(len(r.questions) + 1)
	r.questions = append(r.questions, *q)
	return nil
}

func (r *fakeQuestionRepo) FindByID(_ context.Context, id uint) (*model.Question, error) {
	for i := range r.questions {
		if r.questions[i].ID == id {
			q := r.questions[i]
			return &q, nil
		}
	}
	return nil, apperror.NotFound("question", id)
}

func (r *fakeQuestionRepo) FindBySubtopics(_ context.Context, ids []uint, limit int) ([]model.Question, error) {
	want := map[uint]bool{}
	for _, id := range ids {
		want[id] = true
	}
	var out []model.Question
	for _, q := range r.questions {
		if want[q.SubtopicID] && len(out) < limit {
			out = append(out, q)
		}
	}
	return out, nil
}

type fakePlanRepo struct {
	plans map[uint]*model.TestPlan
}

func newFakePlanRepo() *fakePlanRepo {
	return &fakePlanRepo{plans: map[uint]*model.TestPlan{}}
}

func (r *fakePlanRepo) Create(_ context.Context, p *model.TestPlan) error {
	p.ID = uint(len(r.plans) + 1)
	cp := *p
	r.plans[p.ID] = &cp
	return nil
}

func (r *fakePlanRepo) FindByID(_ context.Context, id uint) (*model.TestPlan, error) {
	p, ok := r.plans[id]
	if !ok {
		return nil, apperror.NotFound("test plan", id)
	}
	cp := *p
	return &cp, nil
}

func (r *fakePlanRepo) FindAllByUser(_ context.Context, userID uint) ([]model.TestPlan, error) {
	var out []model.TestPlan
	for _, p := range r.plans {
		if p.CanAccess(userID) {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *fakePlanRepo) UpdateMetadata(_ context.Context, id uint, title, description string) error {
	p, ok := r.plans[id]
	if !ok {
		return apperror.NotFound("test plan", id)
	}
	p.Title = title
	p.Description = description
	return nil
}

// fakeExecutionRepo keeps copies and enforces the version check like the
// gorm repository does.
type fakeExecutionRepo struct {
	mu         sync.Mutex
	executions map[uint]model.TestExecution
	nextID     uint
	// beforeUpdate runs inside Update before the version check.
	beforeUpdate func(stored *model.TestExecution)
	updates      int
}

func newFakeExecutionRepo() *fakeExecutionRepo {
	return &fakeExecutionRepo{executions: map[uint]model.TestExecution{}}
}

func copyExecution(e model.TestExecution) model.TestExecution {
	e.SetData(e.Data())
	return e
}

func (r *fakeExecutionRepo) FindByID(_ context.Context, id uint) (*model.TestExecution, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.executions[id]
	if !ok {
		return nil, apperror.NotFound("execution", id)
	}
	cp := copyExecution(e)
	return &cp, nil
}

func (r *fakeExecutionRepo) findActive(planID uint) *model.TestExecution {
	var ids []uint
	for id, e := range r.executions {
		if e.TestPlanID == planID && !e.Status.IsTerminal() {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	cp := copyExecution(r.executions[ids[0]])
	return &cp
}

func (r *fakeExecutionRepo) FindActiveByPlan(_ context.Context, planID uint) (*model.TestExecution, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.findActive(planID), nil
}

func (r *fakeExecutionRepo) FindAllByPlan(_ context.Context, planID uint) ([]model.TestExecution, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.TestExecution
	for _, e := range r.executions {
		if e.TestPlanID == planID {
			out = append(out, copyExecution(e))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *fakeExecutionRepo) CreateUnlessActive(_ context.Context, e *model.TestExecution) (*model.TestExecution, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing := r.findActive(e.TestPlanID); existing != nil {
		return existing, false, nil
	}
	r.nextID++
	e.ID = r.nextID
	if e.Version == 0 {
		e.Version = 1
	}
	r.executions[e.ID] = copyExecution(*e)
	return e, true, nil
}

func (r *fakeExecutionRepo) Update(_ context.Context, e *model.TestExecution) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.executions[e.ID]
	if !ok {
		return apperror.NotFound("execution", e.ID)
	}
	if r.beforeUpdate != nil {
		r.beforeUpdate(&stored)
		r.executions[e.ID] = stored
	}
	if stored.Version != e.Version {
		return repository.ErrVersionConflict
	}
	e.Version++
	r.executions[e.ID] = copyExecution(*e)
	r.updates++
	return nil
}

type fakeLLM struct {
	enabled bool
	calls   int
	err     error
}

func (f *fakeLLM) Enabled() bool { return f.enabled }

func (f *fakeLLM) ExplainAnswer(_ context.Context, q model.QuestionSnapshot, answer string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return "explanation for " + answer, nil
}
