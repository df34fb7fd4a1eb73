/*
Package keylock serializes work per key across goroutines and, optionally, across replicas.

A Manager keeps one reference-counted mutex per active key, so unused keys are
garbage collected, and can additionally hold a ports.DistributedLocker lease
while the work runs. The dev backend uses it to serialize writes per assistant.
*/
package keylock
