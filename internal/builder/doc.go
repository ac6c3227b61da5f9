// Package builder is the imperative front end for writing pulse programs.
//
// A Builder owns a stack of scopes. Each scope collects a batch of
// components (instructions and finished sub-blocks) under an alignment
// policy; closing the scope aligns the batch and hands the resulting block
// to the parent's batch. Build opens the outermost scope, runs the user's
// function and returns the finished Schedule.
//
// Gate-level calls are buffered in a lazy circuit and compiled in one go
// the next time a channel instruction is appended, a scope boundary is
// crossed, the compiler settings change or the build finishes.
//
//	b := builder.New(builder.WithTarget(t))
//	s, err := b.Build(ctx, "bell", func(b *builder.Builder) error {
//		if err := b.U2(0, math.Pi, 0); err != nil {
//			return err
//		}
//		if err := b.CX(0, 1); err != nil {
//			return err
//		}
//		_, err := b.MeasureAll()
//		return err
//	})
package builder
