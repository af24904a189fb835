package room

// Cursor is a participant's current selection as linear offsets into the
// document. From == To means a caret with no selection.
type Cursor struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// User is a per-session identity. The id is generated by the client and is not
// stable across reconnects.
type User struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Color  string  `json:"color"`
	Cursor *Cursor `json:"cursor,omitempty"`
}

// DefaultContent seeds every room that has never been written to.
const DefaultContent = `<h2>Getting Started</h2>
<p>Welcome to <strong>VIND Collaborative Editor</strong>, an opensource rich text editor with real-time collaboration! All extensions are licensed under <strong>MIT</strong>.</p>
<p>Integrate it by following the <a href="https://vind-docs.example.com" target="_blank">Vind_docs</a> or using our CLI tool.</p>
<h2>Collaborative Features</h2>
<p>A fully responsive rich text editor with built-in support for <strong>real-time collaboration</strong>. Multiple users can edit simultaneously with live cursors and instant synchronization. 🪄</p>
<p>Add images, customize alignment, and apply advanced formatting while working together with your team in real-time.</p>
<ul>
  <li><strong>Real-time collaboration</strong> with up to 5 team members.</li>
  <li><strong>Live cursors</strong> to see where others are working.</li>
  <li><strong>Instant synchronization</strong> of all changes across devices.</li>
  <li><strong>User presence indicators</strong> to see who's online.</li>
</ul>`
