/*
 * Copyright (c) 2018-2024, corerpc authors. All rights reserved.
 */
package adapter

import "github.com/glacio/corerpc/model"

// Locator is consulted when an adapter has no exact identity/facet match
// and no matching default servant. Locate returns the servant to dispatch
// to and a finalizer the adapter invokes exactly once after dispatch
// completes, success or error alike (e.g. to release a servant borrowed
// from a pool). A nil finalizer is fine when there's nothing to release.
// Returning a nil Servant with a nil error tells the adapter to fall
// through to the next locator (or to ObjectNotExist if none remain).
type Locator interface {
	Locate(identity model.Identity, facet string) (Servant, func(), error)
}

// LocatorFunc adapts a plain function to Locator.
type LocatorFunc func(identity model.Identity, facet string) (Servant, func(), error)

func (f LocatorFunc) Locate(identity model.Identity, facet string) (Servant, func(), error) {
	return f(identity, facet)
}
