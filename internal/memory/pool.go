// --------------------------------------------------------------------------------
// Author: Thomas F McGeehan V
//
// This file is part of a software project developed by Thomas F McGeehan V.
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.
//
// For more information about the MIT License, please visit:
// https://opensource.org/licenses/MIT
//
// Acknowledgment appreciated but not required.
// --------------------------------------------------------------------------------

package memory

import (
	"sync"

	"github.com/apache/arrow/go/v17/arrow/memory"
)

var memPool = sync.Pool{
	New: func() interface{} {
		return memory.NewGoAllocator()
	},
}

// GetAllocator retrieves an allocator from the pool, creating one if the pool is empty.
func GetAllocator() memory.Allocator {
	return memPool.Get().(memory.Allocator)
}

// PutAllocator returns an allocator to the pool. Checked allocators are not
// pooled since they track a single owner's allocations.
func PutAllocator(alloc memory.Allocator) {
	if alloc == nil {
		return
	}
	if _, ok := alloc.(*memory.CheckedAllocator); ok {
		return
	}
	memPool.Put(alloc)
}

// Or returns alloc, or a pooled allocator together with a release func
// when alloc is nil.
func Or(alloc memory.Allocator) (memory.Allocator, func()) {
	if alloc != nil {
		return alloc, func() {}
	}
	pooled := GetAllocator()
	return pooled, func() { PutAllocator(pooled) }
}
