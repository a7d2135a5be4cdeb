// Package unpack expands LEGI release archives into the sharded fragment tree
// and removes the fragments later releases declare obsolete.
//
// Unpacking and pruning are separate phases joined by a type barrier. While
// archives are streamed, deletion manifests feed a mutable Accumulator.
// Finalize freezes it into an ObsoleteSet, and Prune only accepts the frozen
// set, so pruning can only start once every archive has been read. The set of
// surviving fragments therefore depends on the union of all manifests and not
// on the order archives were processed in.
package unpack
