package opcatalog

// unbounded marks an ArityRange side with no upper bound.
const unbounded = -1

func stubWrite(name string) WriteFn {
	return func(args WriteContextArgs) (WriteOutput, error) {
		return WriteOutput{
			Prologue: "",
			Body:     name,
			Post:     "",
		}, nil
	}
}

func simple(name string, inn, out ArityRange) *Spec {
	return &Spec{
		Name:         name,
		NumArgs:      ArityRange{0, unbounded, 0, unbounded},
		HardRangeInn: inn,
		HardRangeOut: out,
		Write:        stubWrite(name),
	}
}

// init registers the minimum operator set spec §4.D names. Each entry
// grounds its arity shape in the operator's role: fan-in/fan-out shapes for
// union/tee/demux, one-barrier-input shapes for defer_tick, and named ports
// for anti_join/join, matching the catalog table style of
// builder/variants.go's map[Variant]size tables.
func init() {
	oneIn, oneOut := ArityRange{1, 1, 1, 1}, ArityRange{1, 1, 1, 1}
	anyIn, anyOut := ArityRange{0, unbounded, 0, unbounded}, ArityRange{0, unbounded, 0, unbounded}

	MustRegister(simple("map", oneIn, oneOut))
	MustRegister(simple("filter", oneIn, oneOut))
	MustRegister(simple("filter_map", oneIn, oneOut))
	MustRegister(simple("flat_map", oneIn, oneOut))
	MustRegister(simple("inspect", oneIn, oneOut))
	MustRegister(simple("for_each", oneIn, ArityRange{0, 0, 0, 0}))
	MustRegister(simple("null", ArityRange{0, unbounded, 0, unbounded}, ArityRange{0, unbounded, 0, unbounded}))

	MustRegister(simple("union", anyIn, oneOut))
	MustRegister(simple("tee", oneIn, anyOut))

	MustRegister(&Spec{
		Name:         "demux",
		HardRangeInn: oneIn,
		HardRangeOut: anyOut,
		Write:        stubWrite("demux"),
	})
	MustRegister(&Spec{
		Name:         "demux_enum",
		HardRangeInn: oneIn,
		HardRangeOut: anyOut,
		Write:        stubWrite("demux_enum"),
	})

	MustRegister(simple("cross_product", ArityRange{2, 2, 2, 2}, oneOut))
	MustRegister(simple("cross_join", ArityRange{2, 2, 2, 2}, oneOut))

	MustRegister(&Spec{
		Name:               "join",
		HardRangeInn:        ArityRange{2, 2, 2, 2},
		HardRangeOut:        oneOut,
		InPorts:             PortSpec{Names: []string{"0", "1"}},
		HasSingletonOutput:  true,
		PersistenceArgs:     ArityRange{0, 2, 0, 2},
		Write:               stubWrite("join"),
	})

	MustRegister(&Spec{
		Name:               "anti_join",
		HardRangeInn:        ArityRange{2, 2, 2, 2},
		HardRangeOut:        oneOut,
		InPorts:             PortSpec{Names: []string{"pos", "neg"}},
		HasSingletonOutput:  true,
		Write:               stubWrite("anti_join"),
		InputDelayType: func(port string) DelayType {
			if port == "neg" {
				return Stratum
			}

			return NoDelay
		},
	})

	MustRegister(simple("difference", ArityRange{2, 2, 2, 2}, oneOut))
	MustRegister(simple("sort", oneIn, oneOut))
	MustRegister(simple("unique", oneIn, oneOut))
	MustRegister(simple("enumerate", oneIn, oneOut))

	MustRegister(&Spec{
		Name:               "fold",
		HardRangeInn:        oneIn,
		HardRangeOut:        oneOut,
		HasSingletonOutput:  true,
		PersistenceArgs:     ArityRange{1, 1, 1, 1},
		Write:               stubWrite("fold"),
	})
	MustRegister(&Spec{
		Name:               "reduce",
		HardRangeInn:        oneIn,
		HardRangeOut:        oneOut,
		HasSingletonOutput:  true,
		PersistenceArgs:     ArityRange{1, 1, 1, 1},
		Write:               stubWrite("reduce"),
	})
	MustRegister(&Spec{
		Name:               "fold_keyed",
		HardRangeInn:        oneIn,
		HardRangeOut:        oneOut,
		HasSingletonOutput:  true,
		PersistenceArgs:     ArityRange{1, 1, 1, 1},
		Write:               stubWrite("fold_keyed"),
	})
	MustRegister(&Spec{
		Name:               "reduce_keyed",
		HardRangeInn:        oneIn,
		HardRangeOut:        oneOut,
		HasSingletonOutput:  true,
		PersistenceArgs:     ArityRange{1, 1, 1, 1},
		Write:               stubWrite("reduce_keyed"),
	})

	MustRegister(&Spec{
		Name:         "persist",
		HardRangeInn: oneIn,
		HardRangeOut: oneOut,
		Write:        stubWrite("persist"),
	})
	MustRegister(&Spec{
		Name:         "defer_tick",
		HardRangeInn: oneIn,
		HardRangeOut: oneOut,
		Write:        stubWrite("defer_tick"),
		InputDelayType: func(port string) DelayType {
			return Tick
		},
	})
	MustRegister(&Spec{
		Name:         "next_tick",
		HardRangeInn: oneIn,
		HardRangeOut: oneOut,
		Write:        stubWrite("next_tick"),
		InputDelayType: func(port string) DelayType {
			return Tick
		},
	})

	MustRegister(&Spec{
		Name:               "lattice_reduce",
		HardRangeInn:        oneIn,
		HardRangeOut:        oneOut,
		HasSingletonOutput:  true,
		PersistenceArgs:     ArityRange{1, 1, 1, 1},
		Write:               stubWrite("lattice_reduce"),
	})
	MustRegister(&Spec{
		Name:         "lattice_bimorphism",
		HardRangeInn: ArityRange{2, 2, 2, 2},
		HardRangeOut: oneOut,
		Write:        stubWrite("lattice_bimorphism"),
	})
	MustRegister(&Spec{
		Name:               "state",
		HardRangeInn:        ArityRange{0, 0, 0, 0},
		HardRangeOut:        ArityRange{0, 0, 0, 0},
		HasSingletonOutput:  true,
		PersistenceArgs:     ArityRange{1, 1, 1, 1},
		Write:               stubWrite("state"),
	})

	MustRegister(&Spec{
		Name:         "source_stream",
		HardRangeInn: ArityRange{0, 0, 0, 0},
		HardRangeOut: oneOut,
		FlowType:     FlowSource,
		Write:        stubWrite("source_stream"),
	})
	MustRegister(&Spec{
		Name:         "source_iter",
		HardRangeInn: ArityRange{0, 0, 0, 0},
		HardRangeOut: oneOut,
		FlowType:     FlowSource,
		Write:        stubWrite("source_iter"),
	})
	MustRegister(&Spec{
		Name:         "source_interval",
		HardRangeInn: ArityRange{0, 0, 0, 0},
		HardRangeOut: oneOut,
		FlowType:     FlowSource,
		Write:        stubWrite("source_interval"),
	})
	MustRegister(simple("dest_sink", oneIn, ArityRange{0, 0, 0, 0}))
	MustRegister(simple("initialize", ArityRange{0, 0, 0, 0}, oneOut))
}
