package usecase

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/eliteGoblin/focusd/eb_agent/internal/domain"
)

var _ = Describe("Agent lifecycle", func() {
	var f *lifecycleFixture

	Context("when the user runs the agent for the first time", func() {
		BeforeEach(func() {
			f = newLifecycleFixture()
			f.ui.outcome = domain.UICompleted
			f.ui.result = validConfig()
		})

		It("saves the configuration, registers autostart and hands off", func() {
			Expect(f.lifecycle().Configure(context.Background())).To(Succeed())

			Expect(f.store.cfg).To(Equal(validConfig()))
			Expect(f.autostart.IsRegistered()).To(BeTrue())
			Expect(f.spawner.modes).To(Equal([]domain.LaunchMode{domain.ModeRelaunch}))
		})

		It("ends with exactly one daemon after the relauncher runs", func() {
			Expect(f.lifecycle().Configure(context.Background())).To(Succeed())

			// The configurator exits; the relauncher it started takes over.
			f.processes.remove(selfPID)
			f.processes.self = 501
			Expect(f.lifecycle().Relaunch()).To(Succeed())
			f.processes.remove(501)

			Expect(f.spawner.modes).To(Equal([]domain.LaunchMode{domain.ModeRelaunch, domain.ModeDaemon}))
			Expect(f.processes.running).To(ConsistOf(502))
		})
	})

	Context("when a daemon finishes a backup", func() {
		BeforeEach(func() {
			f = newLifecycleFixture(42)
		})

		It("leaves only its successor behind", func() {
			Expect(f.lifecycle().Rearm()).To(Succeed())

			Expect(f.exitCodes).To(Equal([]int{0}))
			f.processes.remove(selfPID)
			Expect(f.processes.running).To(ConsistOf(501))
		})
	})

	Context("when the configuration is corrupted", func() {
		BeforeEach(func() {
			f = newLifecycleFixture()
			f.store.loadErr = domain.ErrConfigCorrupted
			f.ui.outcome = domain.UICancelled
		})

		It("tells the user and never starts a daemon on defaults", func() {
			Expect(f.lifecycle().Configure(context.Background())).To(Succeed())

			Expect(f.out.text).To(ContainSubstring("corrupted"))
			Expect(f.store.saved).To(BeEmpty())
			Expect(f.spawner.modes).To(BeEmpty())
		})
	})

	Context("when two relaunchers race", func() {
		It("lets only the lock holder replace the daemons", func() {
			f = newLifecycleFixture(42)
			f.lock.busy = true

			Expect(f.lifecycle().Relaunch()).To(Succeed())
			Expect(f.processes.killedPIDs).To(BeEmpty())
			Expect(f.spawner.modes).To(BeEmpty())
		})
	})
})
