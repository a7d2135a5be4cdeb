// Package archives maintains the local cache of LEGI release archives.
//
// The cache is addressed purely by file name: an archive already present in
// the archive directory is never downloaded again, so repeated builds only
// fetch releases published since the last run. Downloads stream into a
// ".part" file and are renamed into place once complete, which keeps a
// partially transferred archive from ever being mistaken for a cached one.
package archives
