/*
 * Copyright (c) 2018-2024, corerpc authors. All rights reserved.
 */
package hk_test

import (
	"time"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/glacio/corerpc/hk"
)

var _ = Describe("Housekeeper", func() {
	It("fires a one-shot callback once", func() {
		fired := make(chan struct{}, 2)
		hk.DefaultHK.Reg("one-shot", func() time.Duration {
			fired <- struct{}{}
			return 0
		}, 5*time.Millisecond)

		Eventually(fired).Should(Receive())
		Consistently(fired, 50*time.Millisecond).ShouldNot(Receive())
	})

	It("reschedules a recurring callback until unregistered", func() {
		count := make(chan struct{}, 16)
		unreg := hk.DefaultHK.Reg("recurring", func() time.Duration {
			count <- struct{}{}
			return 5 * time.Millisecond
		}, 5*time.Millisecond)

		Eventually(count).Should(Receive())
		Eventually(count).Should(Receive())
		unreg()
	})
})
