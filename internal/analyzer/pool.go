package analyzer

import (
	"image"
	"sync"
)

// grayPool recycles luminance planes between detections of same-sized images.
type grayPool struct {
	pools map[image.Rectangle]*sync.Pool
	mu    sync.RWMutex
}

var planes = &grayPool{pools: make(map[image.Rectangle]*sync.Pool)}

func (p *grayPool) get(rect image.Rectangle) *image.Gray {
	p.mu.RLock()
	pool, ok := p.pools[rect]
	p.mu.RUnlock()

	if !ok {
		p.mu.Lock()
		pool, ok = p.pools[rect]
		if !ok {
			pool = &sync.Pool{
				New: func() any { return image.NewGray(rect) },
			}
			p.pools[rect] = pool
		}
		p.mu.Unlock()
	}
	return pool.Get().(*image.Gray)
}

func (p *grayPool) put(img *image.Gray) {
	if img == nil {
		return
	}
	p.mu.RLock()
	pool, ok := p.pools[img.Rect]
	p.mu.RUnlock()
	if ok {
		pool.Put(img)
	}
}
