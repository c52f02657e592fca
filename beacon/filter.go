package beacon

// Predicate selects beacons. Predicates are pure and safe for concurrent use.
//
// Every variadic predicate below has any-match semantics, the negative forms
// included: ProximityNotIn(Immediate, Near) returns true as soon as one of the
// given values differs from the beacon's proximity, so it is true for every
// beacon when called with two distinct values. Combine single-value negations
// with All to express set exclusion.
type Predicate func(*Beacon) bool

// ProximityIn matches beacons whose proximity equals any of ps
func ProximityIn(ps ...Proximity) Predicate {
	return func(b *Beacon) bool {
		for _, p := range ps {
			if b.Proximity() == p {
				return true
			}
		}
		return false
	}
}

// ProximityNotIn matches beacons whose proximity differs from any of ps
func ProximityNotIn(ps ...Proximity) Predicate {
	return func(b *Beacon) bool {
		for _, p := range ps {
			if b.Proximity() != p {
				return true
			}
		}
		return false
	}
}

// DistanceEquals compares Distance exactly
func DistanceEquals(d float64) Predicate {
	return func(b *Beacon) bool { return b.Distance() == d }
}

func DistanceGreaterThan(d float64) Predicate {
	return func(b *Beacon) bool { return b.Distance() > d }
}

func DistanceLessThan(d float64) Predicate {
	return func(b *Beacon) bool { return b.Distance() < d }
}

// NameIn matches named beacons whose name equals any of names
func NameIn(names ...string) Predicate {
	return func(b *Beacon) bool {
		for _, n := range names {
			if b.named && b.name == n {
				return true
			}
		}
		return false
	}
}

// NameNotIn matches beacons whose name differs from any of names.
// An unnamed beacon differs from every name.
func NameNotIn(names ...string) Predicate {
	return func(b *Beacon) bool {
		for _, n := range names {
			if !b.named || b.name != n {
				return true
			}
		}
		return false
	}
}

// AddressIn compares the raw address string exactly
func AddressIn(addrs ...string) Predicate {
	return func(b *Beacon) bool {
		for _, a := range addrs {
			if b.address.String() == a {
				return true
			}
		}
		return false
	}
}

func AddressNotIn(addrs ...string) Predicate {
	return func(b *Beacon) bool {
		for _, a := range addrs {
			if b.address.String() != a {
				return true
			}
		}
		return false
	}
}

func HardwareAddressIn(addrs ...HardwareAddress) Predicate {
	return func(b *Beacon) bool {
		for _, a := range addrs {
			if b.address == a {
				return true
			}
		}
		return false
	}
}

func HardwareAddressNotIn(addrs ...HardwareAddress) Predicate {
	return func(b *Beacon) bool {
		for _, a := range addrs {
			if b.address != a {
				return true
			}
		}
		return false
	}
}

// All matches when every predicate matches; an empty list matches everything
func All(preds ...Predicate) Predicate {
	return func(b *Beacon) bool {
		for _, p := range preds {
			if !p(b) {
				return false
			}
		}
		return true
	}
}

// Any matches when at least one predicate matches
func Any(preds ...Predicate) Predicate {
	return func(b *Beacon) bool {
		for _, p := range preds {
			if p(b) {
				return true
			}
		}
		return false
	}
}

func Not(pred Predicate) Predicate {
	return func(b *Beacon) bool { return !pred(b) }
}
