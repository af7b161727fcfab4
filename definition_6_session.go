package scheduler

import (
	"log/slog"
	"slices"

	goerrors "github.com/TudorHulban/go-errors"
	"github.com/asaskevich/govalidator"
	"github.com/google/uuid"
)

// Session is one scheduling pass: it owns the task entries, the links of the
// call graph and the pool of every dispatch created while merging. A session
// is single threaded and is driven to completion before its results are
// read.
type Session struct {
	PassID string

	pool *DispatchPool

	tasks []*TaskEntry

	logger *slog.Logger
}

type ParamsNewSession struct {
	Logger *slog.Logger
}

func NewSession(params *ParamsNewSession) *Session {
	return &Session{
		PassID: uuid.NewString(),

		pool: NewDispatchPool(),

		logger: params.Logger,
	}
}

func (ses *Session) Pool() *DispatchPool {
	return ses.pool
}

func (ses *Session) Tasks() []*TaskEntry {
	return ses.tasks
}

func (ses *Session) trace(message string, args ...any) {
	if ses.logger == nil {
		return
	}

	ses.logger.Debug(
		message,
		append(
			[]any{"pass", ses.PassID},
			args...,
		)...,
	)
}

type ParamsNewTaskEntry struct {
	Name string  `valid:"required"`
	Info *RTInfo `valid:"required"`

	IsThreadDelineator bool
}

// AddTask registers a scheduling node for the given descriptor. The
// descriptor's volatile token is pointed back at the new entry for the
// lifetime of the session.
func (ses *Session) AddTask(params *ParamsNewTaskEntry) (*TaskEntry, error) {
	if _, errValidation := govalidator.ValidateStruct(params); errValidation != nil {
		return nil,
			goerrors.ErrServiceValidation{
				ServiceName: "Scheduler",
				Caller:      "AddTask",
				Issue:       errValidation,
			}
	}

	entry := TaskEntry{
		Name: params.Name,

		rtInfo:     params.Info,
		dispatches: NewDispatchSet(),

		IsThreadDelineator: params.IsThreadDelineator,

		ID: TaskID(len(ses.tasks)),
	}

	params.Info.VolatileToken = &entry

	ses.tasks = append(ses.tasks, &entry)

	return &entry,
		nil
}

type ParamsNewTaskEntryLink struct {
	Caller *TaskEntry `valid:"required"`
	Called *TaskEntry `valid:"required"`

	NumberOfCalls int
	Dependency    DependencyType
}

func (params *ParamsNewTaskEntryLink) IsValid() error {
	if params.NumberOfCalls < 1 {
		return goerrors.ErrValidation{
			Caller: "IsValid - ParamsNewTaskEntryLink",
			Issue: goerrors.ErrInvalidInput{
				InputName:  "NumberOfCalls",
				InputValue: params.NumberOfCalls,
			},
		}
	}

	if params.Dependency != OneWayCall && params.Dependency != TwoWayCall {
		return goerrors.ErrValidation{
			Caller: "IsValid - ParamsNewTaskEntryLink",
			Issue: goerrors.ErrInvalidInput{
				InputName: "Dependency",
			},
		}
	}

	return nil
}

// Link records that the caller invokes the called task. The link lands in
// the caller's outgoing set and the called task's incoming set; it is
// immutable afterwards.
func (ses *Session) Link(params *ParamsNewTaskEntryLink) (*TaskEntryLink, error) {
	if _, errValidation := govalidator.ValidateStruct(params); errValidation != nil {
		return nil,
			goerrors.ErrServiceValidation{
				ServiceName: "Scheduler",
				Caller:      "Link",
				Issue:       errValidation,
			}
	}

	if errValidation := params.IsValid(); errValidation != nil {
		return nil,
			errValidation
	}

	link := TaskEntryLink{
		caller: params.Caller,
		called: params.Called,

		numberOfCalls: params.NumberOfCalls,
		dependency:    params.Dependency,
	}

	params.Caller.calls = append(params.Caller.calls, &link)
	params.Called.callers = append(params.Called.callers, &link)

	return &link,
		nil
}

type ParamsSeedDispatch struct {
	Entry *TaskEntry `valid:"required"`

	Arrival  Time
	Deadline Time

	Priority   Preemption
	OSPriority OSPriority
}

// SeedDispatch places a task's own dispatch ahead of merging, the way thread
// delineators carry their initial arrival. The task's effective period is
// initialized from its descriptor on first use.
func (ses *Session) SeedDispatch(params *ParamsSeedDispatch) (*Dispatch, error) {
	if _, errValidation := govalidator.ValidateStruct(params); errValidation != nil {
		return nil,
			goerrors.ErrServiceValidation{
				ServiceName: "Scheduler",
				Caller:      "SeedDispatch",
				Issue:       errValidation,
			}
	}

	dispatch, errNew := ses.pool.NewDispatch(
		&ParamsNewDispatch{
			Arrival:  params.Arrival,
			Deadline: params.Deadline,

			Priority:   params.Priority,
			OSPriority: params.OSPriority,

			Entry: params.Entry,
		},
	)
	if errNew != nil {
		return nil,
			errNew
	}

	if params.Entry.effectivePeriod == 0 {
		params.Entry.effectivePeriod = params.Entry.rtInfo.Period
	}

	params.Entry.dispatches.Insert(dispatch)

	return dispatch,
		nil
}

// TopologicalOrder returns the entries with every caller placed before the
// tasks it calls, so each merge sees its contributors finalized. Ready tasks
// are taken in id order to keep the result deterministic. Fails on a cyclic
// graph.
func (ses *Session) TopologicalOrder() ([]*TaskEntry, error) {
	inDegree := make(map[*TaskEntry]int, len(ses.tasks))

	for _, entry := range ses.tasks {
		inDegree[entry] = len(entry.callers)
	}

	var ready []*TaskEntry

	for _, entry := range ses.tasks {
		if inDegree[entry] == 0 {
			ready = append(ready, entry)
		}
	}

	order := make([]*TaskEntry, 0, len(ses.tasks))

	for len(ready) > 0 {
		slices.SortFunc(
			ready,
			func(a, b *TaskEntry) int {
				return int(a.ID - b.ID)
			},
		)

		entry := ready[0]
		ready = ready[1:]

		order = append(order, entry)

		for _, link := range entry.calls {
			inDegree[link.called]--

			if inDegree[link.called] == 0 {
				ready = append(ready, link.called)
			}
		}
	}

	if len(order) != len(ses.tasks) {
		return nil,
			goerrors.ErrValidation{
				Caller: "TopologicalOrder",
				Issue: goerrors.ErrInvalidInput{
					InputName: "tasks",
					Issue:     errCyclicTaskGraph,
				},
			}
	}

	return order, nil
}

// DepthFirstAnalysis colors the task graph, stamping discovery and finish
// times on each entry. A back edge fails the analysis. Merging never reads
// these fields; they are for callers that want the classic DFS view of the
// graph.
func (ses *Session) DepthFirstAnalysis() error {
	for _, entry := range ses.tasks {
		entry.DFSStatus = NotVisited
		entry.Discovered = -1
		entry.Finished = -1
	}

	counter := 0

	var visit func(entry *TaskEntry) error

	visit = func(entry *TaskEntry) error {
		entry.DFSStatus = Visited

		counter++
		entry.Discovered = counter

		for _, link := range entry.calls {
			switch link.called.DFSStatus {
			case NotVisited:
				if errVisit := visit(link.called); errVisit != nil {
					return errVisit
				}

			case Visited:
				return goerrors.ErrValidation{
					Caller: "DepthFirstAnalysis",
					Issue:  errCyclicTaskGraph,
				}

			case Finished:
				// forward or cross edge, nothing to do
			}
		}

		entry.DFSStatus = Finished

		counter++
		entry.Finished = counter

		return nil
	}

	for _, entry := range ses.tasks {
		if entry.DFSStatus == NotVisited {
			if errVisit := visit(entry); errVisit != nil {
				return errVisit
			}
		}
	}

	return nil
}

// MergeAll runs MergeDispatches over the whole session in topological order,
// aborting the pass on the first error. Returns StatusAdded if any task
// gained dispatches.
func (ses *Session) MergeAll() (int, error) {
	order, errOrder := ses.TopologicalOrder()
	if errOrder != nil {
		return StatusError, errOrder
	}

	ses.trace(
		"merge pass started",
		"tasks", len(order),
	)

	result := StatusUnchanged

	for _, entry := range order {
		status, errMerge := entry.MergeDispatches(ses)
		if errMerge != nil {
			return StatusError, errMerge
		}

		if status == StatusAdded {
			result = StatusAdded
		}
	}

	ses.trace(
		"merge pass finished",
		"dispatches", ses.pool.Len(),
	)

	return result, nil
}

// Release tears the session's graph down: every entry is unlinked and its
// descriptor's back token cleared. The pool keeps the dispatches until the
// session itself is dropped.
func (ses *Session) Release() {
	for _, entry := range ses.tasks {
		entry.Release()
	}
}
