package mdrender

import "github.com/emirpasic/gods/stacks/arraystack"

// frame is an open list on the nesting stack.
type frame struct {
	list  *List
	level int
}

func nest(items []ListItem, mode ListNesting) List {
	if mode == NestingLookahead {
		return List{Items: lookahead(items, 0, 0)}
	}
	return stackNest(items)
}

// stackNest folds a flat run into a tree. Deeper items attach to the last
// item of the innermost open list; shallower items close lists until one at
// or above their level is on top. The outermost list never closes.
func stackNest(items []ListItem) List {
	root := &List{}
	if len(items) == 0 {
		return *root
	}

	stack := arraystack.New()
	stack.Push(frame{list: root, level: items[0].Level})

	for _, item := range items {
		top := peek(stack)
		for stack.Size() > 1 && item.Level < top.level {
			stack.Pop()
			top = peek(stack)
		}

		if item.Level > top.level && len(top.list.Items) > 0 {
			parent := &top.list.Items[len(top.list.Items)-1]
			if parent.Children == nil {
				parent.Children = &List{}
			}
			top = frame{list: parent.Children, level: item.Level}
			stack.Push(top)
		}

		top.list.Items = append(top.list.Items, item)
	}
	return *root
}

func peek(stack *arraystack.Stack) frame {
	v, _ := stack.Peek()
	f, _ := v.(frame)
	return f
}

// lookahead builds the children of each item from the run of deeper items
// that directly follows it, one level at a time. Items deeper than the
// current level that do not follow an item of that level are skipped.
func lookahead(items []ListItem, start, level int) []ListItem {
	var out []ListItem
	for j := start; j < len(items); j++ {
		item := items[j]
		if item.Level < level {
			break
		}
		if item.Level > level {
			continue
		}
		if j+1 < len(items) && items[j+1].Level > level {
			item.Children = &List{Items: lookahead(items, j+1, level+1)}
			for j+1 < len(items) && items[j+1].Level > level {
				j++
			}
		}
		out = append(out, item)
	}
	return out
}
