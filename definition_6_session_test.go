package scheduler

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorsSession(t *testing.T) {
	ses := NewSession(&ParamsNewSession{})

	t.Run(
		"1. task without name",
		func(t *testing.T) {
			entry, errAdd := ses.AddTask(
				&ParamsNewTaskEntry{
					Info: &RTInfo{
						Period: 2,
						Kind:   KindOperation,
					},
				},
			)
			require.Error(t, errAdd)
			require.Nil(t, entry)
		},
	)

	t.Run(
		"2. task without descriptor",
		func(t *testing.T) {
			entry, errAdd := ses.AddTask(
				&ParamsNewTaskEntry{
					Name: "orphan",
				},
			)
			require.Error(t, errAdd)
			require.Nil(t, entry)
		},
	)

	t.Run(
		"3. link without calls",
		func(t *testing.T) {
			caller, errCaller := ses.AddTask(
				&ParamsNewTaskEntry{
					Name: "caller",
					Info: &RTInfo{Period: 2, Kind: KindOperation},
				},
			)
			require.NoError(t, errCaller)

			called, errCalled := ses.AddTask(
				&ParamsNewTaskEntry{
					Name: "called",
					Info: &RTInfo{Period: 2, Kind: KindOperation},
				},
			)
			require.NoError(t, errCalled)

			link, errLink := ses.Link(
				&ParamsNewTaskEntryLink{
					Caller:     caller,
					Called:     called,
					Dependency: OneWayCall,
				},
			)
			require.Error(t, errLink)
			require.Nil(t, link)
		},
	)

	t.Run(
		"4. link without dependency type",
		func(t *testing.T) {
			caller, errCaller := ses.AddTask(
				&ParamsNewTaskEntry{
					Name: "caller 2",
					Info: &RTInfo{Period: 2, Kind: KindOperation},
				},
			)
			require.NoError(t, errCaller)

			called, errCalled := ses.AddTask(
				&ParamsNewTaskEntry{
					Name: "called 2",
					Info: &RTInfo{Period: 2, Kind: KindOperation},
				},
			)
			require.NoError(t, errCalled)

			link, errLink := ses.Link(
				&ParamsNewTaskEntryLink{
					Caller:        caller,
					Called:        called,
					NumberOfCalls: 1,
				},
			)
			require.Error(t, errLink)
			require.Nil(t, link)
		},
	)

	t.Run(
		"5. seed without entry",
		func(t *testing.T) {
			dispatch, errSeed := ses.SeedDispatch(
				&ParamsSeedDispatch{
					Arrival:  0,
					Deadline: 1,
				},
			)
			require.Error(t, errSeed)
			require.Nil(t, dispatch)
		},
	)
}

func TestSessionLinking(t *testing.T) {
	ses := NewSession(&ParamsNewSession{})

	info := &RTInfo{Period: 2, Kind: KindOperation}

	caller, errCaller := ses.AddTask(
		&ParamsNewTaskEntry{
			Name: "caller",
			Info: info,
		},
	)
	require.NoError(t, errCaller)
	require.Same(t, caller, info.VolatileToken)

	called, errCalled := ses.AddTask(
		&ParamsNewTaskEntry{
			Name: "called",
			Info: &RTInfo{Period: 4, Kind: KindOperation},
		},
	)
	require.NoError(t, errCalled)

	link, errLink := ses.Link(
		&ParamsNewTaskEntryLink{
			Caller: caller,
			Called: called,

			NumberOfCalls: 2,
			Dependency:    OneWayCall,
		},
	)
	require.NoError(t, errLink)

	// the link shows up on both ends
	require.Equal(t, []*TaskEntryLink{link}, caller.Calls())
	require.Equal(t, []*TaskEntryLink{link}, called.Callers())
	require.Same(t, caller, link.Caller())
	require.Same(t, called, link.Called())
	require.Equal(t, 2, link.NumberOfCalls())
	require.Equal(t, OneWayCall, link.Dependency())
}

func TestTopologicalOrder(t *testing.T) {
	ses := NewSession(&ParamsNewSession{})

	addTask := func(name string) *TaskEntry {
		entry, errAdd := ses.AddTask(
			&ParamsNewTaskEntry{
				Name: name,
				Info: &RTInfo{Period: 2, Kind: KindOperation},
			},
		)
		require.NoError(t, errAdd)

		return entry
	}

	link := func(caller, called *TaskEntry) {
		_, errLink := ses.Link(
			&ParamsNewTaskEntryLink{
				Caller: caller,
				Called: called,

				NumberOfCalls: 1,
				Dependency:    OneWayCall,
			},
		)
		require.NoError(t, errLink)
	}

	// diamond: a calls b and c, both call d
	a := addTask("a")
	b := addTask("b")
	c := addTask("c")
	d := addTask("d")

	link(a, b)
	link(a, c)
	link(b, d)
	link(c, d)

	order, errOrder := ses.TopologicalOrder()
	require.NoError(t, errOrder)

	require.Equal(
		t,
		[]*TaskEntry{a, b, c, d},
		order,
	)
}

func TestTopologicalOrderCycle(t *testing.T) {
	ses := NewSession(&ParamsNewSession{})

	addTask := func(name string) *TaskEntry {
		entry, errAdd := ses.AddTask(
			&ParamsNewTaskEntry{
				Name: name,
				Info: &RTInfo{Period: 2, Kind: KindOperation},
			},
		)
		require.NoError(t, errAdd)

		return entry
	}

	a := addTask("a")
	b := addTask("b")

	for _, pair := range [][2]*TaskEntry{{a, b}, {b, a}} {
		_, errLink := ses.Link(
			&ParamsNewTaskEntryLink{
				Caller: pair[0],
				Called: pair[1],

				NumberOfCalls: 1,
				Dependency:    OneWayCall,
			},
		)
		require.NoError(t, errLink)
	}

	order, errOrder := ses.TopologicalOrder()
	require.Error(t, errOrder)
	require.Nil(t, order)

	require.Error(t, ses.DepthFirstAnalysis())
}

func TestDepthFirstAnalysis(t *testing.T) {
	ses := NewSession(&ParamsNewSession{})

	addTask := func(name string) *TaskEntry {
		entry, errAdd := ses.AddTask(
			&ParamsNewTaskEntry{
				Name: name,
				Info: &RTInfo{Period: 2, Kind: KindOperation},
			},
		)
		require.NoError(t, errAdd)

		return entry
	}

	a := addTask("a")
	b := addTask("b")
	c := addTask("c")

	for _, pair := range [][2]*TaskEntry{{a, b}, {b, c}} {
		_, errLink := ses.Link(
			&ParamsNewTaskEntryLink{
				Caller: pair[0],
				Called: pair[1],

				NumberOfCalls: 1,
				Dependency:    OneWayCall,
			},
		)
		require.NoError(t, errLink)
	}

	require.NoError(t, ses.DepthFirstAnalysis())

	for _, entry := range []*TaskEntry{a, b, c} {
		require.Equal(t, Finished, entry.DFSStatus)
		require.Less(t, entry.Discovered, entry.Finished)
	}

	// the chain nests: a discovers first, finishes last
	require.Less(t, a.Discovered, b.Discovered)
	require.Less(t, b.Discovered, c.Discovered)
	require.Less(t, c.Finished, b.Finished)
	require.Less(t, b.Finished, a.Finished)
}

func TestMergeAllPipeline(t *testing.T) {
	ses := NewSession(
		&ParamsNewSession{
			Logger: slog.Default(),
		},
	)

	producer, errProducer := ses.AddTask(
		&ParamsNewTaskEntry{
			Name: "producer",
			Info: &RTInfo{Period: 2, WorstCaseExecutionTime: 1, Kind: KindOperation},
		},
	)
	require.NoError(t, errProducer)

	consumer, errConsumer := ses.AddTask(
		&ParamsNewTaskEntry{
			Name: "consumer",
			Info: &RTInfo{Period: 4, WorstCaseExecutionTime: 1, Kind: KindOperation},
		},
	)
	require.NoError(t, errConsumer)

	_, errSeed := ses.SeedDispatch(
		&ParamsSeedDispatch{
			Entry: producer,

			Arrival:  0,
			Deadline: 2,

			Priority: 1,
		},
	)
	require.NoError(t, errSeed)

	_, errLink := ses.Link(
		&ParamsNewTaskEntryLink{
			Caller: producer,
			Called: consumer,

			NumberOfCalls: 1,
			Dependency:    OneWayCall,
		},
	)
	require.NoError(t, errLink)

	status, errMerge := ses.MergeAll()
	require.NoError(t, errMerge)
	require.Equal(t, StatusAdded, status)

	// the producer contributed one joint dispatch per lockstep position
	require.Equal(t, Time(2), consumer.EffectivePeriod())
	require.Equal(t, []Time{0}, collectArrivals(consumer.Dispatches()))

	// pool holds the seeded dispatch plus the merged one
	require.Equal(t, 2, ses.Pool().Len())
}

func TestSessionRelease(t *testing.T) {
	ses := NewSession(&ParamsNewSession{})

	info := &RTInfo{Period: 2, Kind: KindOperation}

	caller, errCaller := ses.AddTask(
		&ParamsNewTaskEntry{
			Name: "caller",
			Info: info,
		},
	)
	require.NoError(t, errCaller)

	called, errCalled := ses.AddTask(
		&ParamsNewTaskEntry{
			Name: "called",
			Info: &RTInfo{Period: 4, Kind: KindOperation},
		},
	)
	require.NoError(t, errCalled)

	_, errLink := ses.Link(
		&ParamsNewTaskEntryLink{
			Caller: caller,
			Called: called,

			NumberOfCalls: 1,
			Dependency:    OneWayCall,
		},
	)
	require.NoError(t, errLink)

	ses.Release()

	require.Empty(t, called.Callers())
	require.Empty(t, caller.Calls())
	require.Nil(t, info.VolatileToken)
}
