// Package prob implements a fully-featured dynamic probabilistic filter.
/*
 * Copyright (c) 2018-2024, corerpc authors. All rights reserved.
 */
package prob_test

import (
	"testing"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

func TestFilter(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, t.Name())
}
