// Package compute describes the compute runtime the interop layer imports
// into: external memory and semaphores, bindless image memory and handles,
// samplers, queues and completion events.
//
// The vocabulary follows the SYCL bindless-images extension (and the
// equivalent CUDA external-memory API). A runtime binding implements
// [Runtime] and [Queue]; backend/computesw is a software implementation.
//
// Queue operations are asynchronous. Each returns an [Event] that completes
// when the operation has executed; operations submitted to one queue run in
// submission order, and operations on different queues are ordered only
// through the events passed as dependencies.
package compute
