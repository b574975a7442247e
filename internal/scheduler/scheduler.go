package scheduler

import (
	"errors"
	"math/rand"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"
)

type Scheduler struct {
	parameters *Parameters
	weights    *Weights
	instance   *Instance
	rng        *rand.Rand
	onProgress func(Progress)
}

// New 创建调度器，所有随机性都来自传入的 rng，因此相同的种子会得到相同的结果
func New(parameters *Parameters, weights *Weights, instance *Instance, rng *rand.Rand) (*Scheduler, error) {
	if err := validate.Struct(parameters); err != nil {
		return nil, err
	}
	if err := validate.Struct(weights); err != nil {
		return nil, err
	}
	if instance == nil {
		return nil, errors.New("问题实例不能为空")
	}
	if rng == nil {
		return nil, errors.New("随机数生成器不能为空")
	}

	return &Scheduler{
		parameters: parameters,
		weights:    weights,
		instance:   instance,
		rng:        rng,
	}, nil
}

// OnProgress 设置进度回调，每隔 ProgressInterval 代以及最后一代调用一次
func (s *Scheduler) OnProgress(fn func(Progress)) {
	s.onProgress = fn
}

func (s *Scheduler) Schedule() *Result {
	// 生成初始种群
	pop := make([]*Schedule, s.parameters.PopulationSize)
	for i := range pop {
		pop[i] = s.randomInitSchedule()
	}

	fitnesses := s.evaluate(pop)

	var bestScheduleEver *Schedule
	bestFitnessEver := -1.0
	bestPenaltyEver := 0.0

	lastGen := int(s.parameters.MaxGenerations) - 1
	for gen := 0; gen <= lastGen; gen++ {
		pop, fitnesses = s.evolve(pop, fitnesses)

		// 找到本代最佳样本
		genBestIndex := 0
		for i := 1; i < len(pop); i++ {
			if fitnesses[i] > fitnesses[genBestIndex] {
				genBestIndex = i
			}
		}

		// 严格更优才替换，适应度相同保留原来的
		if fitnesses[genBestIndex] > bestFitnessEver {
			bestFitnessEver = fitnesses[genBestIndex]
			// 这里需要深拷贝，防止后续繁殖的过程中修改到最佳样本
			bestScheduleEver = pop[genBestIndex].Clone()
			bestPenaltyEver = CalculatePenalty(bestScheduleEver, s.weights)
		}

		if s.onProgress != nil && (gen%int(s.parameters.ProgressInterval) == 0 || gen == lastGen) {
			s.onProgress(Progress{
				Generation:  gen,
				BestPenalty: bestPenaltyEver,
			})
		}
	}

	return &Result{
		Best:        bestScheduleEver,
		Penalty:     bestPenaltyEver,
		Generations: lastGen + 1,
	}
}

// evolve 根据当前种群及其适应度繁殖出下一代，返回下一代及其适应度
func (s *Scheduler) evolve(pop []*Schedule, fitnesses []float64) ([]*Schedule, []float64) {
	// 按适应度从高到低排序，相同适应度保持原有顺序
	sortedIndices := make([]int, len(pop))
	for i := range sortedIndices {
		sortedIndices[i] = i
	}
	sort.SliceStable(sortedIndices, func(i, j int) bool {
		return fitnesses[sortedIndices[i]] > fitnesses[sortedIndices[j]]
	})

	newPop := make([]*Schedule, 0, s.parameters.PopulationSize)

	// 保留精英
	for _, idx := range sortedIndices[:s.parameters.EliteCount] {
		newPop = append(newPop, pop[idx].Clone())
	}

	for len(newPop) < int(s.parameters.PopulationSize) {
		// 选择两个父本，选出来的已经是拷贝
		p1 := s.selectByTournament(pop, fitnesses)
		p2 := s.selectByTournament(pop, fitnesses)

		ch1, ch2 := p1, p2
		if s.rng.Float64() < s.parameters.CrossoverRate {
			ch1, ch2 = s.crossover(p1, p2)
		}

		if s.rng.Float64() < s.parameters.MutationRate {
			s.mutate(ch1)
		}
		if s.rng.Float64() < s.parameters.MutationRate {
			s.mutate(ch2)
		}

		newPop = append(newPop, ch1)
		if len(newPop) < int(s.parameters.PopulationSize) {
			newPop = append(newPop, ch2)
		}
	}

	return newPop, s.evaluate(newPop)
}

// evaluate 并行计算每个候选课表的适应度
// 每个协程只读自己的候选课表，只写 fitnesses 中自己的位置，Wait 返回前不会进入下一阶段
func (s *Scheduler) evaluate(pop []*Schedule) []float64 {
	fitnesses := make([]float64, len(pop))

	workers := s.parameters.Workers
	if workers == 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	var g errgroup.Group
	g.SetLimit(workers)

	for i, sch := range pop {
		g.Go(func() error {
			fitnesses[i] = Fitness(CalculatePenalty(sch, s.weights), s.parameters.Epsilon)
			return nil
		})
	}

	_ = g.Wait() // 计算适应度不会返回错误

	return fitnesses
}
