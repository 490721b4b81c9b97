package errutil

// Mapped rewrites each leaf error of err through mappers in order, dropping
// any error a mapper rejects. Used by the driver to annotate a node's
// internal errors (expander/merge/interpolator) with node-name context
// before they're joined into the composite render failure.
func Mapped(err error, mapper ...func(src error) (dst error, keep bool)) error {
	if err == nil {
		return nil
	}
	errs := ShallowUnwrap(err)
	mapped := Map(errs, AndMapper(mapper...))
	if len(mapped) == 0 {
		return nil
	}
	return Join(mapped...)
}

func Map(errs []error, mapper func(src error) (dst error, keep bool)) []error {
	var result []error
	for _, err := range errs {
		dst, keep := mapper(err)
		if keep {
			result = append(result, dst)
		}
	}
	return result
}

func AndMapper(mappers ...func(error) (error, bool)) func(error) (error, bool) {
	return func(srcErr error) (error, bool) {
		var (
			dstErr = srcErr
			keep   bool
		)
		for _, mapper := range mappers {
			dstErr, keep = mapper(dstErr)
			if !keep {
				return nil, false
			}
		}
		return dstErr, true
	}
}
