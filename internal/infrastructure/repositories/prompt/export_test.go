package prompt

var SortedIndexes = sortedIndexes //nolint:gochecknoglobals // test export
