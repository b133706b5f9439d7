package ui

// themeInitScript applies the stored color mode before first paint so the
// page does not flash the wrong theme. Modes are "light", "dark", or "auto";
// auto follows the OS preference via CSS.
const themeInitScript = `(function(){
  var root=document.documentElement;
  function normalize(mode){
    return mode==='light'||mode==='dark'||mode==='auto'?mode:'auto';
  }
  function apply(mode){
    root.setAttribute('data-color-mode',normalize(mode));
  }
  var stored='auto';
  try {
    stored=normalize(localStorage.getItem('portal-theme')||'auto');
  } catch (_) {}
  apply(stored);
  window.__portalThemeApply=function(mode){
    try { localStorage.setItem('portal-theme',normalize(mode)); } catch (_) {}
    apply(mode);
  };
})();`

// themeToggleScript flips between explicit light and dark from the topbar.
const themeToggleScript = `var m=document.documentElement.getAttribute('data-color-mode');window.__portalThemeApply(m==='dark'?'light':'dark');`
