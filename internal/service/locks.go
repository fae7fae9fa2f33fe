package service

import "sync"

type recordKey struct {
	planID    uint
	studentID uint
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// RecordLocker мьютекс на пару (план, участник); записи удаляются, когда их никто не держит.
// Один экземпляр разделяется между отметкой и обработкой отпусков.
type RecordLocker struct {
	mu    sync.Mutex
	locks map[recordKey]*lockEntry
}

func NewRecordLocker() *RecordLocker {
	return &RecordLocker{locks: make(map[recordKey]*lockEntry)}
}

// Lock захватывает блокировку пары и возвращает функцию освобождения
func (l *RecordLocker) Lock(planID, studentID uint) func() {
	key := recordKey{planID: planID, studentID: studentID}

	l.mu.Lock()
	entry, ok := l.locks[key]
	if !ok {
		entry = &lockEntry{}
		l.locks[key] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, key)
		}
		l.mu.Unlock()
	}
}

func (l *RecordLocker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
