/*
 * Copyright (c) 2018-2024, corerpc authors. All rights reserved.
 */
package prob_test

import (
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/glacio/corerpc/cmn/prob"
)

var _ = Describe("Filter", func() {
	It("reports a fresh key as not present, then as present", func() {
		f := prob.New(64)
		Expect(f.AddIfNotPresent([]byte("req-1"))).To(BeFalse())
		Expect(f.AddIfNotPresent([]byte("req-1"))).To(BeTrue())
	})

	It("forgets everything after Reset", func() {
		f := prob.New(64)
		f.AddIfNotPresent([]byte("req-1"))
		f.Reset()
		Expect(f.AddIfNotPresent([]byte("req-1"))).To(BeFalse())
	})

	It("tracks distinct keys independently", func() {
		f := prob.New(64)
		Expect(f.AddIfNotPresent([]byte("a"))).To(BeFalse())
		Expect(f.AddIfNotPresent([]byte("b"))).To(BeFalse())
		Expect(f.AddIfNotPresent([]byte("a"))).To(BeTrue())
		Expect(f.AddIfNotPresent([]byte("b"))).To(BeTrue())
	})
})
