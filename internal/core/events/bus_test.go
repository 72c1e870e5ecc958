package events

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestEvents(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Events Suite")
}

var _ = Describe("EventBus", func() {
	var bus *EventBus

	BeforeEach(func() {
		bus = NewEventBus(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError})))
	})

	It("should deliver published events to every subscriber", func() {
		var calls atomic.Int32
		for i := 0; i < 2; i++ {
			bus.Subscribe(EventTypeRawMaterialCritical, func(ctx context.Context, e Event) error {
				calls.Add(1)
				return nil
			})
		}

		Expect(bus.Publish(context.Background(), NewRawMaterialCriticalEvent(1, "HM-001", 2, 5, "kg"))).To(Succeed())
		Eventually(calls.Load, time.Second).Should(Equal(int32(2)))
	})

	It("should ignore events nobody listens to", func() {
		Expect(bus.PublishSync(context.Background(), NewQualityTestFailedEvent(1, 2, "B-1", "hardness"))).To(Succeed())
	})

	It("should surface handler failures in synchronous mode", func() {
		bus.Subscribe(EventTypeQualityTestFailed, func(ctx context.Context, e Event) error {
			return errors.New("boom")
		})

		err := bus.PublishSync(context.Background(), NewQualityTestFailedEvent(1, 2, "B-1", "hardness"))
		Expect(err).To(MatchError(ContainSubstring("boom")))
	})

	It("should carry the payload fields in Data", func() {
		e := NewRawMaterialCriticalEvent(7, "HM-007", 1.5, 10, "kg")
		Expect(e.EventType()).To(Equal(EventTypeRawMaterialCritical))
		Expect(e.EventID()).NotTo(BeEmpty())
		Expect(e.Payload()).To(HaveKeyWithValue("code", "HM-007"))
	})

	It("should run every handler in synchronous mode and join their failures", func() {
		var ran atomic.Int32
		bus.Subscribe(EventTypeQualityTestFailed, func(ctx context.Context, e Event) error {
			ran.Add(1)
			return errors.New("first")
		})
		bus.Subscribe(EventTypeQualityTestFailed, func(ctx context.Context, e Event) error {
			ran.Add(1)
			return errors.New("second")
		})

		err := bus.PublishSync(context.Background(), NewQualityTestFailedEvent(1, 2, "B-1", "hardness"))
		Expect(err).To(MatchError(ContainSubstring("first")))
		Expect(err).To(MatchError(ContainSubstring("second")))
		Expect(ran.Load()).To(Equal(int32(2)))
	})

	It("should turn a handler panic into an error", func() {
		bus.Subscribe(EventTypeRawMaterialCritical, func(ctx context.Context, e Event) error {
			panic("nil map")
		})

		err := bus.PublishSync(context.Background(), NewRawMaterialCriticalEvent(1, "HM-001", 2, 5, "kg"))
		Expect(err).To(MatchError(ContainSubstring("panicked")))
	})

	It("should keep async handlers running after the request context ends", func() {
		release := make(chan struct{})
		var sawCancel atomic.Bool
		bus.Subscribe(EventTypeRawMaterialCritical, func(ctx context.Context, e Event) error {
			<-release
			sawCancel.Store(ctx.Err() != nil)
			return nil
		})

		ctx, cancel := context.WithCancel(context.Background())
		Expect(bus.Publish(ctx, NewRawMaterialCriticalEvent(1, "HM-001", 2, 5, "kg"))).To(Succeed())
		cancel()
		close(release)

		Expect(bus.Drain(context.Background())).To(Succeed())
		Expect(sawCancel.Load()).To(BeFalse())
	})

	It("should stop draining when its context expires", func() {
		block := make(chan struct{})
		defer close(block)
		bus.Subscribe(EventTypeRawMaterialCritical, func(ctx context.Context, e Event) error {
			<-block
			return nil
		})
		Expect(bus.Publish(context.Background(), NewRawMaterialCriticalEvent(1, "HM-001", 2, 5, "kg"))).To(Succeed())

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		Expect(bus.Drain(ctx)).To(MatchError(context.DeadlineExceeded))
	})
})
