package orchestrator_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"bisage.dev/gateway/internal/allowlist"
	"bisage.dev/gateway/internal/cache"
	"bisage.dev/gateway/internal/checkpoint"
	"bisage.dev/gateway/internal/composer"
	"bisage.dev/gateway/internal/convstore"
	"bisage.dev/gateway/internal/executor"
	"bisage.dev/gateway/internal/model"
	"bisage.dev/gateway/internal/orchestrator"
	"bisage.dev/gateway/internal/planner"
	"bisage.dev/gateway/internal/relstore"
	"bisage.dev/gateway/internal/router"
	"bisage.dev/gateway/internal/stream"
)

// failingStore fails every query, to exercise DataExecutor's
// total-failure path through Reflection into an error terminal state.
type failingStore struct{}

func (failingStore) Query(_ context.Context, _ string, _ map[string]any) ([]relstore.Row, error) {
	return nil, errors.New("connection refused")
}

func buildOrchestrator(store relstore.Store, conv convstore.Store) *orchestrator.Orchestrator {
	registry, err := allowlist.New("")
	Expect(err).NotTo(HaveOccurred())

	return orchestrator.New(orchestrator.Deps{
		Router:     router.New(nil, false),
		Planner:    planner.New(registry, nil, false),
		Executor:   executor.New(registry, store, 4),
		Composer:   composer.New(nil, false, true),
		ConvStore:  conv,
		Checkpoint: checkpoint.NewInMemory(),
		Caches:     cache.NewInMemorySet(),
	})
}

// runToEnd drives one request through the graph on a goroutine and
// collects every emitted event.
func runToEnd(ctx context.Context, o *orchestrator.Orchestrator, req model.Request) (*model.OrchestratorState, []stream.Event) {
	em := stream.NewEmitter(ctx, 64)

	done := make(chan *model.OrchestratorState, 1)
	go func() {
		defer em.Close()
		done <- o.Run(ctx, req, em)
	}()

	var events []stream.Event
	for ev := range em.Events() {
		events = append(events, ev)
	}
	return <-done, events
}

func eventTypes(events []stream.Event) []string {
	types := make([]string, len(events))
	for i, ev := range events {
		types[i] = ev.Type
	}
	return types
}

var _ = Describe("Orchestrator", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	Describe("Run", func() {
		Context("with a conversational question", func() {
			It("streams a direct reply and never composes a dashboard", func() {
				o := buildOrchestrator(relstore.NewFake(), convstore.NewInMemory())
				state, events := runToEnd(ctx, o, model.Request{Question: "hola"})

				Expect(state.LastError).NotTo(HaveOccurred())
				Expect(state.Spec).To(BeNil())

				types := eventTypes(events)
				Expect(types).NotTo(ContainElement(stream.EventDashboard))
				Expect(types).To(ContainElement(stream.EventFinish))
				Expect(types[len(types)-1]).To(Equal(stream.EventDone))
			})
		})

		Context("with a data question", func() {
			It("emits the dashboard and payload in protocol order", func() {
				o := buildOrchestrator(relstore.NewFake(), convstore.NewInMemory())
				state, events := runToEnd(ctx, o, model.Request{Question: "como van las ventas de este mes"})

				Expect(state.Spec).NotTo(BeNil())

				types := eventTypes(events)
				Expect(types).To(ContainElement(stream.EventDashboard))
				Expect(types).To(ContainElement(stream.EventPayload))

				Expect(types[0]).To(Equal(stream.EventStart))
				Expect(types[1]).To(Equal(stream.EventTrace))
				Expect(types[2]).To(Equal(stream.EventTextStart))
				Expect(types[len(types)-1]).To(Equal(stream.EventDone))
			})
		})

		Context("when the context is already cancelled", func() {
			It("records the cancellation and composes nothing", func() {
				o := buildOrchestrator(relstore.NewFake(), convstore.NewInMemory())
				cancelled, cancel := context.WithCancel(ctx)
				cancel()

				state, _ := runToEnd(cancelled, o, model.Request{Question: "ventas de hoy"})

				Expect(state.LastError).To(HaveOccurred())
				Expect(state.Spec).To(BeNil())
			})
		})

		Context("when every query fails until the retry budget runs out", func() {
			It("ends with an error finish and no dashboard or payload events", func() {
				o := buildOrchestrator(failingStore{}, convstore.NewInMemory())
				state, events := runToEnd(ctx, o, model.Request{Question: "como van las ventas de este mes"})

				Expect(state.LastError).To(HaveOccurred())
				Expect(state.RetryCount).To(Equal(orchestrator.MaxRetries))

				types := eventTypes(events)
				Expect(types).NotTo(ContainElement(stream.EventDashboard))
				Expect(types).NotTo(ContainElement(stream.EventPayload))

				var errorText, finishReason string
				for _, ev := range events {
					switch ev.Type {
					case stream.EventTextDelta:
						if d, ok := ev.Data.(stream.TextDeltaData); ok {
							errorText += d.Text
						}
					case stream.EventFinish:
						if d, ok := ev.Data.(stream.FinishData); ok {
							finishReason = d.FinishReason
						}
					}
				}
				Expect(errorText).NotTo(BeEmpty(), "expected a user-legible error message as text-delta")
				Expect(finishReason).To(Equal("error"))
			})
		})

		Context("with a data-only question", func() {
			It("returns a reduced spec with a summary-only narrative", func() {
				o := buildOrchestrator(relstore.NewFake(), convstore.NewInMemory())
				state, events := runToEnd(ctx, o, model.Request{Question: "cuanto vendimos en total la semana pasada"})

				Expect(state.LastError).NotTo(HaveOccurred())
				Expect(state.Spec).NotTo(BeNil())
				Expect(state.Spec.Slots.Narrative).To(HaveLen(1))
				Expect(state.Spec.Slots.Narrative[0].Type).To(Equal(model.NarrativeSummary))

				Expect(eventTypes(events)).To(ContainElement(stream.EventDashboard))
			})
		})

		It("persists exactly one user and one assistant turn for a successful run", func() {
			store := convstore.NewInMemory()
			o := buildOrchestrator(relstore.NewFake(), store)

			state, _ := runToEnd(ctx, o, model.Request{Question: "como van las ventas de este mes"})
			Expect(state.LastError).NotTo(HaveOccurred())

			turns, err := store.Recent(ctx, state.ThreadID, 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(turns).To(HaveLen(2))
			Expect(turns[0].Role).To(Equal(model.ConversationRoleUser))
			Expect(turns[1].Role).To(Equal(model.ConversationRoleAssistant))
		})
	})
})
