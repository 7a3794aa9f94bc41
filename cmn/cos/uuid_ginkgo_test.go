/*
 * Copyright (c) 2018-2024, corerpc authors. All rights reserved.
 */
package cos_test

import (
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/glacio/corerpc/cmn/cos"
)

var _ = Describe("diagnostic IDs", func() {
	BeforeEach(func() {
		cos.InitShortID(1)
	})

	It("generates valid, distinct UUIDs", func() {
		a := cos.GenUUID()
		b := cos.GenUUID()
		Expect(a).NotTo(Equal(b))
		Expect(cos.IsValidUUID(a)).To(BeTrue())
		Expect(cos.IsValidUUID(b)).To(BeTrue())
	})

	It("rejects IDs that are too short or contain illegal characters", func() {
		Expect(cos.IsValidUUID("ab")).To(BeFalse())
		Expect(cos.IsValidUUID("-leading-dash-not-ok")).To(BeFalse())
	})

	It("derives the same shuffle seed for the same input", func() {
		s1 := cos.HashSeed("ice:tcp:host:4061", 7)
		s2 := cos.HashSeed("ice:tcp:host:4061", 7)
		s3 := cos.HashSeed("ice:tcp:host:4061", 8)
		Expect(s1).To(Equal(s2))
		Expect(s1).NotTo(Equal(s3))
	})

	It("produces fixed-length tie breakers", func() {
		Expect(cos.GenTie()).To(HaveLen(3))
	})
})
