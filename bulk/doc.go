// Package bulk writes large sets of objects to a relational database in as
// few statements as the dialect allows.
//
// Objects are split into batches that fit the dialect parameter ceiling, each
// batch is sent as one multi-row statement, and database generated values
// can be read back into the objects through the dialect's output clause:
//
//	client, err := bulk.NewClient(drv, bulk.WithLogger(logger))
//	if err != nil {
//		return err
//	}
//	n, err := bulk.Insert(client, users).ReturningGenerated().Exec(ctx)
//
// Merges match objects against existing rows:
//
//	n, err := bulk.Merge(client, users, bulk.MergeUpsert).Exec(ctx)
//
// Set-based updates and deletes take a predicate built with package expr:
//
//	n, err := bulk.Delete[User](client).
//		Where(expr.Fn(expr.LT(expr.F("u", "LastSeen"), expr.V("cutoff", &cutoff)), "u")).
//		Exec(ctx)
//
// An operation of more than one batch runs in a transaction of its own unless
// the caller passes one with WithTx, stores one in the context with
// dialect.NewTxContext, or opts out with WithoutInnerTx.
package bulk
